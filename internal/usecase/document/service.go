// Package document processes one uploaded bill: validation, text extraction,
// field parsing and response metadata.
package document

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/billocr/internal/domain"
	"github.com/kailas-cloud/billocr/internal/domain/fields"
	"github.com/kailas-cloud/billocr/internal/domain/upload"
	"github.com/kailas-cloud/billocr/internal/logger"
)

// Upload is an incoming file as the transport sees it.
// DeclaredSize is upload.UnknownSize when the client sent no size hint.
type Upload struct {
	Body         io.Reader
	Filename     string
	ContentType  string
	DeclaredSize int64
}

// Result is everything the response is built from.
type Result struct {
	Document       upload.Document
	Extraction     domain.ExtractionResult
	Fields         fields.Fields
	ProcessingTime time.Duration
}

// Service runs the whole per-request pipeline.
type Service struct {
	validator upload.Validator
	extractor Extractor
	now       func() time.Time
}

// New creates a document service.
func New(validator upload.Validator, extractor Extractor) *Service {
	return &Service{
		validator: validator,
		extractor: extractor,
		now:       time.Now,
	}
}

// MaxFileSize returns the configured upload limit.
func (s *Service) MaxFileSize() int64 { return s.validator.MaxSize() }

// Process validates the upload, extracts its text and parses fields.
// Validation errors are returned before any engine runs.
func (s *Service) Process(ctx context.Context, in Upload) (Result, error) {
	start := s.now()

	doc, err := s.validator.Load(in.Body, in.Filename, in.ContentType, in.DeclaredSize)
	if err != nil {
		return Result{}, fmt.Errorf("load upload: %w", err)
	}

	log := logger.FromContext(ctx).With(
		zap.String("file_id", doc.ID()),
		zap.String("content_type", doc.ContentType()),
		zap.Int64("file_size", doc.Size()),
	)

	ext, err := s.extractor.Extract(ctx, doc)
	if err != nil {
		log.Error("extraction failed", zap.Error(err))
		return Result{}, fmt.Errorf("extract text: %w", err)
	}

	res := Result{
		Document:       doc,
		Extraction:     ext,
		Fields:         fields.Extract(ext.Text),
		ProcessingTime: s.now().Sub(start),
	}

	log.Debug("document processed",
		zap.String("path", string(ext.Path)),
		zap.Int("word_count", ext.WordCount),
		zap.Duration("took", res.ProcessingTime),
	)
	return res, nil
}
