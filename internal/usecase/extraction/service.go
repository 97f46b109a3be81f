// Package extraction turns an uploaded document into text.
//
// Images go straight to the OCR engine. PDFs use their digital text layer when
// any page has one; otherwise the leading pages are rasterized and OCR'd.
package extraction

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"math"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/tiff" // register decoder
	"golang.org/x/sync/errgroup"
	"go.uber.org/zap"

	"github.com/kailas-cloud/billocr/internal/domain"
	"github.com/kailas-cloud/billocr/internal/domain/textstat"
	"github.com/kailas-cloud/billocr/internal/domain/upload"
	"github.com/kailas-cloud/billocr/internal/logger"
	"github.com/kailas-cloud/billocr/internal/metrics"
)

// DefaultFallbackPages caps how many leading pages of a text-less PDF are OCR'd.
const DefaultFallbackPages = 5

// PageSeparator joins page texts.
const PageSeparator = "\n\n"

// Kind labels for metrics.
const (
	KindImage = "image"
	KindPDF   = "pdf"
)

// Fallback page outcomes for metrics.
const (
	pageOK             = "ok"
	pageRasterizeError = "rasterize_error"
	pageOCRError       = "ocr_error"
)

// Service runs the image and PDF pipelines.
type Service struct {
	ocr           OCREngine
	pdf           PDFOpener
	fallbackPages int
	workers       int
}

// New creates an extraction service with sequential fallback over DefaultFallbackPages pages.
func New(ocr OCREngine, pdf PDFOpener) *Service {
	return &Service{
		ocr:           ocr,
		pdf:           pdf,
		fallbackPages: DefaultFallbackPages,
		workers:       1,
	}
}

// WithFallback configures the OCR fallback page cap and the number of pages
// processed at once. Non-positive values keep the current setting.
func (s *Service) WithFallback(pages, workers int) *Service {
	if pages > 0 {
		s.fallbackPages = pages
	}
	if workers > 0 {
		s.workers = workers
	}
	return s
}

// Extract runs the pipeline that matches the document type.
func (s *Service) Extract(ctx context.Context, doc upload.Document) (domain.ExtractionResult, error) {
	kind := KindImage
	if doc.IsPDF() {
		kind = KindPDF
	}

	start := time.Now()
	var (
		res domain.ExtractionResult
		err error
	)
	if kind == KindPDF {
		res, err = s.extractPDF(ctx, doc.Data())
	} else {
		res, err = s.extractImage(ctx, doc.Data())
	}
	metrics.ExtractionDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.DocumentsTotal.WithLabelValues(kind, "unknown", metrics.StatusError).Inc()
		return domain.ExtractionResult{}, err
	}
	metrics.DocumentsTotal.WithLabelValues(kind, string(res.Path), metrics.StatusOK).Inc()

	return withStats(res), nil
}

func (s *Service) extractImage(ctx context.Context, data []byte) (domain.ExtractionResult, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return domain.ExtractionResult{}, domain.NewProcessingError("decode image", err)
	}

	rec, err := s.ocr.Recognize(ctx, data)
	if err != nil {
		logger.FromContext(ctx).Error("ocr failed", zap.String("engine", s.ocr.Name()), zap.Error(err))
		return domain.ExtractionResult{}, domain.NewProcessingError("ocr", err)
	}

	return domain.ExtractionResult{
		Text:           rec.Text,
		Confidence:     MeanConfidence(rec.Confidences),
		Path:           domain.PathImage,
		PagesProcessed: 1,
		Image:          &domain.ImageInfo{Format: format, Width: cfg.Width, Height: cfg.Height},
	}, nil
}

func (s *Service) extractPDF(ctx context.Context, data []byte) (domain.ExtractionResult, error) {
	log := logger.FromContext(ctx)

	doc, err := s.pdf.Open(ctx, data)
	if err != nil {
		return domain.ExtractionResult{}, domain.NewProcessingError("open pdf", err)
	}
	defer func() {
		if err := doc.Close(); err != nil {
			log.Warn("pdf scratch release failed", zap.Error(err))
		}
	}()

	total := doc.PageCount()

	pages, err := digitalPages(doc, total)
	if err != nil {
		return domain.ExtractionResult{}, domain.NewProcessingError("pdf text", err)
	}

	usedOCR := false
	path := domain.PathDigital
	confidence := domain.DigitalConfidence

	if len(pages) == 0 {
		usedOCR = true
		path = domain.PathOCRFallback
		confidence = domain.FallbackConfidence

		pages, err = s.fallback(ctx, doc, min(total, s.fallbackPages))
		if err != nil {
			return domain.ExtractionResult{}, err
		}
	}

	return domain.ExtractionResult{
		Text:           joinPages(pages),
		Confidence:     confidence,
		Path:           path,
		TotalPages:     &total,
		UsedOCR:        &usedOCR,
		PagesProcessed: len(pages),
	}, nil
}

// digitalPages returns the pages that carry a digital text layer, in page order.
func digitalPages(doc domain.PDFDocument, total int) ([]domain.PageResult, error) {
	var pages []domain.PageResult
	for i := 0; i < total; i++ {
		text, err := doc.PageText(i)
		if err != nil {
			return nil, err
		}
		if textstat.HasText(text) {
			pages = append(pages, domain.PageResult{Index: i, Text: text, Source: domain.SourceDigital})
		}
	}
	return pages, nil
}

// fallback OCRs the first n pages. A failing page is logged and skipped; the
// request fails only when every page fails.
func (s *Service) fallback(ctx context.Context, doc domain.PDFDocument, n int) ([]domain.PageResult, error) {
	results := make([]domain.PageResult, n)
	errs := make([]error, n)

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			results[i], errs[i] = s.ocrPage(ctx, doc, i)
			return nil
		})
	}
	_ = g.Wait()

	pages := make([]domain.PageResult, 0, n)
	var firstErr error
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			if firstErr == nil {
				firstErr = errs[i]
			}
			continue
		}
		pages = append(pages, results[i])
	}

	if n > 0 && len(pages) == 0 {
		return nil, domain.NewProcessingError("ocr fallback", firstErr)
	}
	return pages, nil
}

// ocrPage rasterizes and recognizes one page. The raster is released before returning.
func (s *Service) ocrPage(ctx context.Context, doc domain.PDFDocument, i int) (domain.PageResult, error) {
	log := logger.FromContext(ctx).With(zap.Int("page", i+1))

	img, err := doc.Rasterize(ctx, i)
	if err != nil {
		metrics.FallbackPagesTotal.WithLabelValues(pageRasterizeError).Inc()
		log.Warn("page rasterization failed, skipping", zap.Error(err))
		return domain.PageResult{}, fmt.Errorf("rasterize page %d: %w", i+1, err)
	}
	defer func() {
		if err := img.Close(); err != nil {
			log.Warn("page image release failed", zap.Error(err))
		}
	}()

	raster, err := img.Bytes()
	if err == nil {
		var rec domain.Recognition
		if rec, err = s.ocr.Recognize(ctx, raster); err == nil {
			metrics.FallbackPagesTotal.WithLabelValues(pageOK).Inc()
			return domain.PageResult{
				Index:       i,
				Text:        rec.Text,
				Source:      domain.SourceOCR,
				Confidences: rec.Confidences,
			}, nil
		}
	}

	metrics.FallbackPagesTotal.WithLabelValues(pageOCRError).Inc()
	log.Warn("page ocr failed, skipping", zap.String("engine", s.ocr.Name()), zap.Error(err))
	return domain.PageResult{}, fmt.Errorf("ocr page %d: %w", i+1, err)
}

// MeanConfidence averages the integer parts of the strictly positive confidences.
// It returns 0 when none qualify.
func MeanConfidence(confs []float64) float64 {
	var sum float64
	var n int
	for _, c := range confs {
		if c = math.Trunc(c); c > 0 {
			sum += c
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// joinPages joins the non-empty page texts in page order.
func joinPages(pages []domain.PageResult) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		if textstat.HasText(p.Text) {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, PageSeparator)
}

// withStats fills the word and line statistics from the final text.
func withStats(res domain.ExtractionResult) domain.ExtractionResult {
	lines := textstat.NonEmptyLines(res.Text)
	res.WordCount = textstat.WordCount(res.Text)
	res.LineCount = len(lines)
	res.DetectedLines = textstat.Preview(lines, textstat.PreviewLines)
	return res
}

