package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates every engine answered its probe.
	Healthy Status = "healthy"
	// Degraded indicates at least one engine probe failed. The service still
	// answers, but some uploads will fail.
	Degraded Status = "degraded"
)

// Component names reported in Report.Checks.
const (
	CheckOCR        = "tesseract"
	CheckRasterizer = "pdf_rasterizer"
)

// Report aggregates probe results.
type Report struct {
	Status Status
	Checks map[string]bool
}

// OCRAvailable reports the OCR engine probe.
func (r Report) OCRAvailable() bool { return r.Checks[CheckOCR] }

// RasterizerAvailable reports the PDF rasterizer probe. False when no rasterizer is configured.
func (r Report) RasterizerAvailable() bool { return r.Checks[CheckRasterizer] }

// Service coordinates engine probes.
type Service struct {
	ocr        Prober
	rasterizer Prober
}

// New creates a Service. rasterizer can be nil.
func New(ocr, rasterizer Prober) *Service {
	return &Service{ocr: ocr, rasterizer: rasterizer}
}

// Check probes every engine. Probes run on each call; nothing is cached.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]bool{
		CheckOCR: s.ocr.Available(ctx),
	}
	if s.rasterizer != nil {
		checks[CheckRasterizer] = s.rasterizer.Available(ctx)
	}

	status := Healthy
	for _, ok := range checks {
		if !ok {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
