package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/billocr/internal/config"
	"github.com/kailas-cloud/billocr/internal/domain/upload"
	logpkg "github.com/kailas-cloud/billocr/internal/logger"
	"github.com/kailas-cloud/billocr/internal/metrics"
	"github.com/kailas-cloud/billocr/internal/scratch"
	chiTransport "github.com/kailas-cloud/billocr/internal/transport/chi"
	"github.com/kailas-cloud/billocr/internal/transport/command"
	pdfTransport "github.com/kailas-cloud/billocr/internal/transport/pdf"
	"github.com/kailas-cloud/billocr/internal/transport/tesseract"
	documentuc "github.com/kailas-cloud/billocr/internal/usecase/document"
	"github.com/kailas-cloud/billocr/internal/usecase/extraction"
	healthuc "github.com/kailas-cloud/billocr/internal/usecase/health"
	"github.com/kailas-cloud/billocr/internal/version"
)

// ocrEngine is what the composition root needs from an OCR backend.
type ocrEngine interface {
	extraction.OCREngine
	healthuc.Prober
}

func main() {
	// .env first so ENV and overrides can come from it
	if err := config.LoadDotEnv(); err != nil {
		panic(err.Error())
	}
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, logpkg.Options{
		Service: version.Service,
		Version: version.Version,
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
	})
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting billocr API server",
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("ocr_engine", cfg.OCR.Engine),
		zap.Int64("max_file_size", cfg.Upload.MaxFileSize),
	)

	// Register extraction metrics explicitly (no init())
	metrics.RegisterExtractionMetrics()

	space := scratch.NewSpace(cfg.Scratch.Dir)
	runner := command.ExecRunner{Logger: logger}

	engine, err := buildEngine(cfg.OCR, space, runner, logger)
	if err != nil {
		logger.Fatal("Failed to create OCR engine", zap.Error(err))
	}

	pdfExtractor := pdfTransport.NewExtractor(&pdfTransport.Config{
		Pdftoppm: cfg.PDF.Pdftoppm,
		DPI:      cfg.PDF.DPI,
		Scratch:  space,
		Runner:   runner,
		Logger:   logger,
	})

	// Startup probes only log; /health reports the live state
	probeCtx, cancelProbe := context.WithTimeout(context.Background(), 10*time.Second)
	if !engine.Available(probeCtx) {
		logger.Warn("OCR engine not available", zap.String("engine", engine.Name()))
	}
	if !pdfExtractor.Available(probeCtx) {
		logger.Warn("PDF rasterizer not available, scanned PDFs will fail",
			zap.String("pdftoppm", cfg.PDF.Pdftoppm))
	}
	cancelProbe()

	// Use case services
	extractSvc := extraction.New(engine, pdfExtractor).
		WithFallback(cfg.OCR.FallbackPages, cfg.OCR.FallbackWorkers)
	docSvc := documentuc.New(upload.NewValidator(cfg.Upload.MaxFileSize), extractSvc)
	healthSvc := healthuc.New(engine, pdfExtractor)

	server := chiTransport.NewServer(docSvc, healthSvc, logger).
		WithRateLimit(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.CORSMiddleware(cfg.HTTP.CORSOrigins))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEngine picks the OCR backend named in the config.
func buildEngine(
	cfg config.OCRConfig,
	space scratch.Space,
	runner command.Runner,
	logger *zap.Logger,
) (ocrEngine, error) {
	tcfg := &tesseract.Config{
		Command:     cfg.TesseractCmd,
		Lang:        cfg.Lang,
		PSM:         cfg.PSM,
		TessdataDir: cfg.TessdataDir,
		Scratch:     space,
		Runner:      runner,
		Logger:      logger,
	}

	switch cfg.Engine {
	case config.EngineEmbedded:
		engine, err := tesseract.NewEmbedded(tcfg)
		if err != nil {
			return nil, fmt.Errorf("embedded engine: %w", err)
		}
		return engine, nil
	case config.EngineCLI:
		return tesseract.NewCLI(tcfg), nil
	default:
		return nil, fmt.Errorf("unknown ocr engine %q", cfg.Engine)
	}
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.CodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
