package extraction

import (
	"context"

	"github.com/kailas-cloud/billocr/internal/domain"
)

// OCREngine recognizes text in one encoded raster.
type OCREngine interface {
	Name() string
	Recognize(ctx context.Context, raster []byte) (domain.Recognition, error)
}

// PDFOpener parses PDF bytes.
type PDFOpener interface {
	Open(ctx context.Context, data []byte) (domain.PDFDocument, error)
}
