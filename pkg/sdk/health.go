package billocr

import (
	"context"
	"time"
)

// HealthStatus represents the availability of the external engines.
type HealthStatus struct {
	Status string          // "healthy", "degraded"
	Checks map[string]bool // component → available
}

// Health probes the OCR engine and the PDF rasterizer.
func (c *Client) Health(ctx context.Context) HealthStatus {
	start := time.Now()
	report := c.healthSvc.Check(ctx)
	c.obs.observe("health", start, nil)

	checks := make(map[string]bool, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = v
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}
