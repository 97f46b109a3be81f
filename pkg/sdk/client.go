package billocr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/billocr/internal/domain/upload"
	"github.com/kailas-cloud/billocr/internal/scratch"
	"github.com/kailas-cloud/billocr/internal/transport/command"
	pdfTransport "github.com/kailas-cloud/billocr/internal/transport/pdf"
	"github.com/kailas-cloud/billocr/internal/transport/tesseract"
	documentuc "github.com/kailas-cloud/billocr/internal/usecase/document"
	"github.com/kailas-cloud/billocr/internal/usecase/extraction"
	healthuc "github.com/kailas-cloud/billocr/internal/usecase/health"
)

// Internal interfaces, swapped out in tests.
type documentUseCase interface {
	Process(ctx context.Context, in documentuc.Upload) (documentuc.Result, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

type ocrEngine interface {
	extraction.OCREngine
	healthuc.Prober
}

// extensionTypes covers raster types missing from the mime package's built-in table.
var extensionTypes = map[string]string{
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
}

// Client is the billocr SDK entry point. It runs the same pipeline as the
// HTTP service, in process. A Client is safe for concurrent use.
type Client struct {
	docSvc    documentUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client. External engines are not probed; call Health for that.
func New(opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}
	return wireClient(cfg, obs)
}

func wireClient(cfg *clientConfig, obs *observer) (*Client, error) {
	logger := zap.NewNop()
	space := scratch.NewSpace(cfg.scratchDir)
	runner := command.ExecRunner{Logger: logger}

	tcfg := &tesseract.Config{
		Command:     cfg.tesseractCmd,
		Lang:        cfg.lang,
		PSM:         cfg.psm,
		TessdataDir: cfg.tessdataDir,
		Scratch:     space,
		Runner:      runner,
		Logger:      logger,
	}
	var engine ocrEngine = tesseract.NewCLI(tcfg)
	if cfg.embedded {
		emb, err := tesseract.NewEmbedded(tcfg)
		if err != nil {
			return nil, fmt.Errorf("billocr: %w", err)
		}
		engine = emb
	}

	pdfExtractor := pdfTransport.NewExtractor(&pdfTransport.Config{
		Pdftoppm: cfg.pdftoppm,
		DPI:      cfg.dpi,
		Scratch:  space,
		Runner:   runner,
		Logger:   logger,
	})

	extractSvc := extraction.New(engine, pdfExtractor).
		WithFallback(cfg.fallbackPages, cfg.fallbackWorkers)

	return &Client{
		docSvc:    documentuc.New(upload.NewValidator(cfg.maxFileSize), extractSvc),
		healthSvc: healthuc.New(engine, pdfExtractor),
		obs:       obs,
	}, nil
}

// Extract runs OCR and field extraction over r.
// contentType must be one of the accepted image types or application/pdf.
func (c *Client) Extract(ctx context.Context, r io.Reader, filename, contentType string) (_ *Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("extract", start, err) }()

	res, err := c.docSvc.Process(ctx, documentuc.Upload{
		Body:         r,
		Filename:     filename,
		ContentType:  contentType,
		DeclaredSize: upload.UnknownSize,
	})
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", filename, err)
	}
	out := resultFromDomain(res)
	c.obs.extracted(out)
	return out, nil
}

// ExtractFile reads path and extracts it. The content type is taken from the file extension.
func (c *Client) ExtractFile(ctx context.Context, path string) (*Result, error) {
	contentType := ContentTypeByExtension(path)
	if contentType == "" {
		return nil, fmt.Errorf("extract %s: %w: unknown extension", path, ErrInvalidFileType)
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return c.Extract(ctx, bytes.NewReader(data), filepath.Base(path), contentType)
}

// ContentTypeByExtension maps a file name to its media type, or "" when unknown.
func ContentTypeByExtension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	return upload.NormalizeMediaType(mime.TypeByExtension(ext))
}
