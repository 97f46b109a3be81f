package document

import (
	"context"

	"github.com/kailas-cloud/billocr/internal/domain"
	"github.com/kailas-cloud/billocr/internal/domain/upload"
)

// Extractor turns a validated document into text.
type Extractor interface {
	Extract(ctx context.Context, doc upload.Document) (domain.ExtractionResult, error)
}
