// Package tesseract adapts the Tesseract OCR engine.
//
// The default engine shells out to the tesseract binary. Building with the
// "gosseract" tag adds an in-process engine backed by libtesseract.
package tesseract

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/billocr/internal/domain"
	"github.com/kailas-cloud/billocr/internal/metrics"
	"github.com/kailas-cloud/billocr/internal/scratch"
	"github.com/kailas-cloud/billocr/internal/transport/command"
)

// EngineCLI is the metrics label of the command-line engine.
const EngineCLI = "tesseract-cli"

const probeTimeout = 5 * time.Second

// Config holds the engine settings. PSM 0 keeps tesseract's default
// segmentation mode; a nil Runner means command.ExecRunner.
type Config struct {
	Command     string
	Lang        string
	PSM         int
	TessdataDir string
	Scratch     scratch.Space
	Runner      command.Runner
	Logger      *zap.Logger
}

// CLI runs the tesseract binary once per raster and reads its txt and tsv outputs.
type CLI struct {
	command     string
	lang        string
	psm         int
	tessdataDir string
	scratch     scratch.Space
	runner      command.Runner
	logger      *zap.Logger
}

// NewCLI creates a command-line engine.
func NewCLI(cfg *Config) *CLI {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	runner := cfg.Runner
	if runner == nil {
		runner = command.ExecRunner{Logger: logger}
	}
	return &CLI{
		command:     cfg.Command,
		lang:        cfg.Lang,
		psm:         cfg.PSM,
		tessdataDir: cfg.TessdataDir,
		scratch:     cfg.Scratch,
		runner:      runner,
		logger:      logger,
	}
}

// Name returns the engine label.
func (c *CLI) Name() string { return EngineCLI }

// Recognize runs one OCR pass over an encoded raster.
func (c *CLI) Recognize(ctx context.Context, raster []byte) (domain.Recognition, error) {
	dir, err := c.scratch.Acquire("tess")
	if err != nil {
		return domain.Recognition{}, err
	}
	defer func() {
		if err := dir.Release(); err != nil {
			c.logger.Warn("scratch release failed", zap.String("dir", dir.Path()), zap.Error(err))
		}
	}()

	in, err := dir.WriteFile("in", raster)
	if err != nil {
		return domain.Recognition{}, err
	}

	start := time.Now()
	_, stderr, err := c.runner.Run(ctx, c.command, c.args(in, dir.Join("out"))...)
	metrics.ObserveOCRPass(EngineCLI, time.Since(start).Seconds(), err)
	if err != nil {
		if msg := strings.TrimSpace(string(stderr)); msg != "" {
			return domain.Recognition{}, fmt.Errorf("tesseract: %w: %s", err, command.Truncate(msg, 512))
		}
		return domain.Recognition{}, fmt.Errorf("tesseract: %w", err)
	}

	text, err := dir.ReadFile("out.txt")
	if err != nil {
		return domain.Recognition{}, fmt.Errorf("tesseract text output: %w", err)
	}
	tsv, err := dir.ReadFile("out.tsv")
	if err != nil {
		return domain.Recognition{}, fmt.Errorf("tesseract tsv output: %w", err)
	}
	confs, err := ParseConfidences(tsv)
	if err != nil {
		return domain.Recognition{}, fmt.Errorf("tesseract tsv output: %w", err)
	}

	return domain.Recognition{Text: string(text), Confidences: confs}, nil
}

// Available runs `tesseract --version`. It never fails; any error reads as unavailable.
func (c *CLI) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if _, _, err := c.runner.Run(ctx, c.command, "--version"); err != nil {
		c.logger.Debug("tesseract probe failed", zap.Error(err))
		return false
	}
	return true
}

// args builds `tesseract <in> <outbase> -l <lang> [--psm N] [--tessdata-dir D] txt tsv`.
func (c *CLI) args(in, outBase string) []string {
	args := []string{in, outBase, "-l", c.lang}
	if c.psm > 0 {
		args = append(args, "--psm", strconv.Itoa(c.psm))
	}
	if c.tessdataDir != "" {
		args = append(args, "--tessdata-dir", c.tessdataDir)
	}
	return append(args, "txt", "tsv")
}
