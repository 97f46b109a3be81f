//go:build !gosseract

package tesseract

import (
	"context"
	"errors"

	"github.com/kailas-cloud/billocr/internal/domain"
)

// EngineEmbedded is the metrics label of the libtesseract engine.
const EngineEmbedded = "tesseract-embedded"

// EmbeddedSupported reports whether this binary was built with libtesseract.
const EmbeddedSupported = false

// ErrEmbeddedUnavailable is returned when the binary was built without the gosseract tag.
var ErrEmbeddedUnavailable = errors.New("embedded tesseract engine not compiled in (build with -tags gosseract)")

// Embedded is a placeholder for builds without libtesseract.
type Embedded struct{}

// NewEmbedded always fails in this build.
func NewEmbedded(*Config) (*Embedded, error) {
	return nil, ErrEmbeddedUnavailable
}

// Name returns the engine label.
func (e *Embedded) Name() string { return EngineEmbedded }

// Recognize always fails in this build.
func (e *Embedded) Recognize(context.Context, []byte) (domain.Recognition, error) {
	return domain.Recognition{}, ErrEmbeddedUnavailable
}

// Available always reports false in this build.
func (e *Embedded) Available(context.Context) bool { return false }
