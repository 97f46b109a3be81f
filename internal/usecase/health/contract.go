package health

import "context"

// Prober reports whether an external engine can be used right now.
// It never fails; any problem reads as false.
type Prober interface {
	Available(ctx context.Context) bool
}
