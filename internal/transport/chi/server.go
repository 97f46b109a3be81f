package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	gochi "github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/billocr/internal/domain"
	"github.com/kailas-cloud/billocr/internal/domain/upload"
	"github.com/kailas-cloud/billocr/internal/metrics"
	documentuc "github.com/kailas-cloud/billocr/internal/usecase/document"
	healthuc "github.com/kailas-cloud/billocr/internal/usecase/health"
	"github.com/kailas-cloud/billocr/internal/version"
)

// FileField is the multipart form field carrying the upload.
const FileField = "file"

// multipartOverhead is the body allowance on top of the file limit for
// boundaries, part headers and other form fields.
const multipartOverhead int64 = 64 << 10

// RootMessage is returned by GET /.
const RootMessage = "OCR Service is running"

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the bill OCR HTTP API.
type Server struct {
	documents     *documentuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	limiter       func(http.Handler) http.Handler
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. Rate limiting is off until WithRateLimit is called.
func NewServer(documents *documentuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		documents: documents,
		health:    health,
		logger:    logger,
		limiter:   RateLimitMiddleware(0, 0),
	}
	s.errorHandlers = []errorHandler{
		s.bodyTooLargeHandler,
		sentinelHandler(domain.ErrInvalidFileType, http.StatusBadRequest, CodeInvalidFileType),
		sentinelHandler(domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge, CodeFileTooLarge),
		sentinelHandler(domain.ErrValidation, http.StatusUnprocessableEntity, CodeValidationFailed),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
		sentinelHandler(domain.ErrProcessing, http.StatusInternalServerError, CodeProcessingFailed),
	}
	return s
}

// WithRateLimit enables a token-bucket limiter on POST /ocr. rps <= 0 disables it.
func (s *Server) WithRateLimit(rps float64, burst int) *Server {
	s.limiter = RateLimitMiddleware(rps, burst)
	return s
}

// Register mounts every route on r. Middlewares must already be installed.
func (s *Server) Register(r gochi.Router) {
	r.Get("/", s.Root)
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.With(s.limiter).Post("/ocr", s.ExtractText)
}

// ExtractText handles POST /ocr.
func (s *Server) ExtractText(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.documents.MaxFileSize()+multipartOverhead)

	part, err := filePart(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	defer func() { _ = part.Close() }()

	res, err := s.documents.Process(r.Context(), documentuc.Upload{
		Body:         part,
		Filename:     part.FileName(),
		ContentType:  part.Header.Get("Content-Type"),
		DeclaredSize: declaredSize(part.Header.Get("Content-Length")),
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resultToResponse(res))
}

// HealthCheck handles GET /health. The endpoint answers 200 while the
// process is up; engine availability is reported in the body.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:                 string(report.Status),
		Service:                version.Service,
		Version:                version.Version,
		TesseractAvailable:     report.OCRAvailable(),
		PDFRasterizerAvailable: report.RasterizerAvailable(),
	})
}

// Root handles GET /.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{
		Message: RootMessage,
		Version: version.Version,
	})
}

// filePart advances the multipart reader to the file field. Other fields are skipped.
func filePart(r *http.Request) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: expected multipart/form-data: %w", domain.ErrValidation, err)
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: missing %q part", domain.ErrValidation, FileField)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read multipart body: %w", domain.ErrValidation, err)
		}
		if part.FormName() == FileField {
			return part, nil
		}
		_ = part.Close()
	}
}

// declaredSize parses a part's Content-Length header.
func declaredSize(v string) int64 {
	if v == "" {
		return upload.UnknownSize
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return upload.UnknownSize
	}
	return n
}

func resultToResponse(res documentuc.Result) OCRResponse {
	ext := res.Extraction
	meta := Metadata{
		OriginalFilename: res.Document.Filename(),
		ContentType:      res.Document.ContentType(),
		FileSize:         res.Document.Size(),
		FileID:           res.Document.ID(),
		ProcessingTimeMS: float64(res.ProcessingTime.Microseconds()) / 1000,
		TotalPages:       ext.TotalPages,
		Confidence:       ext.Confidence,
		WordCount:        ext.WordCount,
		LineCount:        ext.LineCount,
		UsedOCR:          ext.UsedOCR,
		ExtractionPath:   string(ext.Path),
		PagesProcessed:   ext.PagesProcessed,
		DetectedLines:    ext.DetectedLines,
	}
	if meta.DetectedLines == nil {
		meta.DetectedLines = []string{}
	}
	if img := ext.Image; img != nil {
		meta.ImageFormat = img.Format
		meta.ImageWidth = img.Width
		meta.ImageHeight = img.Height
	}

	return OCRResponse{
		Success:       true,
		ExtractedText: ext.Text,
		ParsedFields: ParsedFields{
			Total:         res.Fields.Total,
			Title:         res.Fields.Title,
			Date:          res.Fields.Date,
			InvoiceNumber: res.Fields.InvoiceNumber,
			Vendor:        res.Fields.Vendor,
		},
		Metadata: meta,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// clientSentinels are the errors whose detail is safe to show to the caller.
var clientSentinels = []error{
	domain.ErrInvalidFileType,
	domain.ErrFileTooLarge,
	domain.ErrValidation,
	domain.ErrRateLimited,
	domain.ErrProcessing,
}

// safeDomainMessage returns the client-facing message for err: the text from
// the matched sentinel onwards, without the usecase prefixes before it.
// Processing failures carry the collaborator message.
func safeDomainMessage(err error) string {
	var pe *domain.ProcessingError
	if errors.As(err, &pe) {
		return "OCR processing failed: " + pe.Error()
	}
	full := err.Error()
	for _, s := range clientSentinels {
		if !errors.Is(err, s) {
			continue
		}
		if i := strings.Index(full, s.Error()); i >= 0 {
			return full[i:]
		}
		return s.Error()
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// bodyTooLargeHandler maps a request body over the multipart allowance to 413.
func (s *Server) bodyTooLargeHandler(w http.ResponseWriter, err error, _ string) bool {
	var mbe *http.MaxBytesError
	if !errors.As(err, &mbe) {
		return false
	}
	writeError(w, http.StatusRequestEntityTooLarge, CodeFileTooLarge,
		fmt.Sprintf("%s: file size exceeds maximum allowed size of %d bytes",
			domain.ErrFileTooLarge, s.documents.MaxFileSize()))
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.requestLogger(r)
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			if errors.Is(err, domain.ErrProcessing) {
				log.Error("processing error", zap.Error(err))
			} else {
				log.Warn("domain error", zap.Error(err))
			}
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	if id := chiMiddleware.GetReqID(r.Context()); id != "" {
		return s.logger.With(zap.String("request_id", id))
	}
	return s.logger
}
