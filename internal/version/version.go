// Package version holds build metadata injected via ldflags.
package version

// Service is the name reported by health and log lines.
const Service = "ocr-service"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "1.0.0"
	Commit  = "unknown"
	Date    = "unknown"
)
