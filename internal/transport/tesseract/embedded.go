//go:build gosseract

package tesseract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"

	"github.com/kailas-cloud/billocr/internal/domain"
	"github.com/kailas-cloud/billocr/internal/metrics"
)

// EngineEmbedded is the metrics label of the libtesseract engine.
const EngineEmbedded = "tesseract-embedded"

// EmbeddedSupported reports whether this binary was built with libtesseract.
const EmbeddedSupported = true

// Embedded runs OCR in-process through gosseract.
// A gosseract client is not safe for concurrent use, so each pass gets its own.
type Embedded struct {
	lang string
	psm  int
}

// NewEmbedded creates an in-process engine.
func NewEmbedded(cfg *Config) (*Embedded, error) {
	return &Embedded{lang: cfg.Lang, psm: cfg.PSM}, nil
}

// Name returns the engine label.
func (e *Embedded) Name() string { return EngineEmbedded }

// Recognize runs one OCR pass over an encoded raster.
func (e *Embedded) Recognize(ctx context.Context, raster []byte) (domain.Recognition, error) {
	if err := ctx.Err(); err != nil {
		return domain.Recognition{}, err //nolint:wrapcheck // context error
	}

	start := time.Now()
	rec, err := e.recognize(raster)
	metrics.ObserveOCRPass(EngineEmbedded, time.Since(start).Seconds(), err)
	return rec, err
}

func (e *Embedded) recognize(raster []byte) (domain.Recognition, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.lang); err != nil {
		return domain.Recognition{}, fmt.Errorf("set language: %w", err)
	}
	if e.psm > 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(e.psm)); err != nil {
			return domain.Recognition{}, fmt.Errorf("set page seg mode: %w", err)
		}
	}
	if err := client.SetImageFromBytes(raster); err != nil {
		return domain.Recognition{}, fmt.Errorf("set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return domain.Recognition{}, fmt.Errorf("recognize text: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return domain.Recognition{}, fmt.Errorf("word boxes: %w", err)
	}
	confs := make([]float64, 0, len(boxes))
	for _, b := range boxes {
		confs = append(confs, wordScore(b.Confidence))
	}

	return domain.Recognition{Text: text, Confidences: confs}, nil
}

// Available reports whether libtesseract answers with a version string.
func (e *Embedded) Available(context.Context) bool {
	return strings.TrimSpace(gosseract.Version()) != ""
}
