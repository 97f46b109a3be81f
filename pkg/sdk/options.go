package billocr

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	tesseractCmd string
	lang         string
	psm          int
	tessdataDir  string
	embedded     bool

	pdftoppm string
	dpi      int

	maxFileSize     int64
	fallbackPages   int
	fallbackWorkers int
	scratchDir      string

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		tesseractCmd: "tesseract",
		lang:         "eng",
		pdftoppm:     "pdftoppm",
	}
}

// WithTesseract sets the tesseract binary and recognition language.
// Defaults: "tesseract" from PATH, language "eng".
func WithTesseract(cmd, lang string) Option {
	return optionFunc(func(c *clientConfig) {
		if cmd != "" {
			c.tesseractCmd = cmd
		}
		if lang != "" {
			c.lang = lang
		}
	})
}

// WithPageSegmentation sets the tesseract page segmentation mode (--psm).
// Zero keeps the engine default.
func WithPageSegmentation(psm int) Option {
	return optionFunc(func(c *clientConfig) {
		c.psm = psm
	})
}

// WithTessdata points tesseract at a custom tessdata directory.
func WithTessdata(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.tessdataDir = dir
	})
}

// WithEmbeddedOCR runs OCR in-process through libtesseract.
// Requires a binary built with the gosseract tag; New fails otherwise.
func WithEmbeddedOCR() Option {
	return optionFunc(func(c *clientConfig) {
		c.embedded = true
	})
}

// WithRasterizer sets the pdftoppm binary and render resolution for scanned PDFs.
// Defaults: "pdftoppm" from PATH, 150 DPI.
func WithRasterizer(pdftoppm string, dpi int) Option {
	return optionFunc(func(c *clientConfig) {
		if pdftoppm != "" {
			c.pdftoppm = pdftoppm
		}
		c.dpi = dpi
	})
}

// WithMaxFileSize sets the upload limit in bytes. Default: 10 MiB.
func WithMaxFileSize(n int64) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxFileSize = n
	})
}

// WithFallback sets how many leading pages of a scanned PDF are OCRed and
// how many of them run at once. Defaults: 5 pages, sequential.
func WithFallback(pages, workers int) Option {
	return optionFunc(func(c *clientConfig) {
		c.fallbackPages = pages
		c.fallbackWorkers = workers
	})
}

// WithScratchDir sets where temporary files are created. Default: os.TempDir().
func WithScratchDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.scratchDir = dir
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
