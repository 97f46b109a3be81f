// Package pdf reads PDF documents: page count and digital text through
// github.com/ledongthuc/pdf, page rasters through poppler's pdftoppm.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	pdflib "github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/kailas-cloud/billocr/internal/domain"
	"github.com/kailas-cloud/billocr/internal/scratch"
	"github.com/kailas-cloud/billocr/internal/transport/command"
)

// DefaultDPI is the rasterization resolution used when none is configured.
const DefaultDPI = 150

const probeTimeout = 5 * time.Second

// Config holds the extractor settings. A nil Runner means command.ExecRunner.
type Config struct {
	Pdftoppm string
	DPI      int
	Scratch  scratch.Space
	Runner   command.Runner
	Logger   *zap.Logger
}

// Extractor opens PDFs and renders their pages.
type Extractor struct {
	pdftoppm string
	dpi      int
	scratch  scratch.Space
	runner   command.Runner
	logger   *zap.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(cfg *Config) *Extractor {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	runner := cfg.Runner
	if runner == nil {
		runner = command.ExecRunner{Logger: logger}
	}
	dpi := cfg.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &Extractor{
		pdftoppm: cfg.Pdftoppm,
		dpi:      dpi,
		scratch:  cfg.Scratch,
		runner:   runner,
		logger:   logger,
	}
}

// Open parses data. Malformed input that makes the PDF library panic is
// reported as an error.
func (e *Extractor) Open(_ context.Context, data []byte) (doc domain.PDFDocument, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("parse pdf: panic: %v", r)
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse pdf: %w", err)
	}

	return &Document{
		reader: reader,
		pages:  reader.NumPage(),
		data:   data,
		ex:     e,
	}, nil
}

// Available runs `pdftoppm -v`. It never fails; any error reads as unavailable.
func (e *Extractor) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if _, _, err := e.runner.Run(ctx, e.pdftoppm, "-v"); err != nil {
		e.logger.Debug("pdftoppm probe failed", zap.Error(err))
		return false
	}
	return true
}

// Document is an opened PDF. Rasterize may be called from several goroutines;
// PageText serializes access to the parser.
type Document struct {
	reader *pdflib.Reader
	pages  int
	data   []byte
	ex     *Extractor

	textMu sync.Mutex

	srcOnce sync.Once
	src     string
	srcErr  error
	dir     *scratch.Dir
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return d.pages }

// PageText returns the digital text of page i (zero-based). A page without a
// content object has no text.
func (d *Document) PageText(i int) (text string, err error) {
	if i < 0 || i >= d.pages {
		return "", fmt.Errorf("page %d out of range [0,%d)", i, d.pages)
	}

	d.textMu.Lock()
	defer d.textMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("page %d text: panic: %v", i+1, r)
		}
	}()

	p := d.reader.Page(i + 1)
	if p.V.IsNull() {
		return "", nil
	}
	text, err = p.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("page %d text: %w", i+1, err)
	}
	return text, nil
}

// Rasterize renders page i (zero-based) to PNG at the configured DPI.
func (d *Document) Rasterize(ctx context.Context, i int) (domain.PageImage, error) {
	if i < 0 || i >= d.pages {
		return nil, fmt.Errorf("page %d out of range [0,%d)", i, d.pages)
	}

	src, err := d.source()
	if err != nil {
		return nil, err
	}

	n := strconv.Itoa(i + 1)
	prefix := d.dir.Join("page-" + n)
	_, stderr, err := d.ex.runner.Run(ctx, d.ex.pdftoppm,
		"-f", n, "-l", n, "-r", strconv.Itoa(d.ex.dpi), "-png", "-singlefile", src, prefix)
	if err != nil {
		if msg := strings.TrimSpace(string(stderr)); msg != "" {
			return nil, fmt.Errorf("pdftoppm page %s: %w: %s", n, err, command.Truncate(msg, 512))
		}
		return nil, fmt.Errorf("pdftoppm page %s: %w", n, err)
	}

	return &PageImage{path: prefix + ".png"}, nil
}

// Close removes the scratch directory holding the source copy and any page images.
func (d *Document) Close() error {
	if d.dir == nil {
		return nil
	}
	return d.dir.Release()
}

// source writes the PDF bytes to scratch once; pdftoppm reads from there.
func (d *Document) source() (string, error) {
	d.srcOnce.Do(func() {
		dir, err := d.ex.scratch.Acquire("pdf")
		if err != nil {
			d.srcErr = err
			return
		}
		d.dir = dir
		d.src, d.srcErr = dir.WriteFile("source.pdf", d.data)
	})
	return d.src, d.srcErr
}
