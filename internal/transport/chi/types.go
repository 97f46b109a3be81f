package chi

// ErrorCode is the machine-readable code of an error body.
type ErrorCode string

// Error codes.
const (
	CodeInvalidFileType  ErrorCode = "invalid_file_type"
	CodeFileTooLarge     ErrorCode = "file_too_large"
	CodeValidationFailed ErrorCode = "validation_failed"
	CodeRateLimited      ErrorCode = "rate_limited"
	CodeProcessingFailed ErrorCode = "processing_failed"
	CodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// OCRResponse is the body of a successful POST /ocr.
type OCRResponse struct {
	Success       bool         `json:"success"`
	ExtractedText string       `json:"extracted_text"`
	ParsedFields  ParsedFields `json:"parsed_fields"`
	Metadata      Metadata     `json:"metadata"`
}

// ParsedFields are encoded as null when no rule matched.
type ParsedFields struct {
	Total         *float64 `json:"total"`
	Title         *string  `json:"title"`
	Date          *string  `json:"date"`
	InvoiceNumber *string  `json:"invoice_number"`
	Vendor        *string  `json:"vendor"`
}

// Metadata describes how the document was processed.
// total_pages and used_ocr are null for images; the image_* fields are omitted for PDFs.
type Metadata struct {
	OriginalFilename string   `json:"original_filename"`
	ContentType      string   `json:"content_type"`
	FileSize         int64    `json:"file_size"`
	FileID           string   `json:"file_id"`
	ProcessingTimeMS float64  `json:"processing_time_ms"`
	TotalPages       *int     `json:"total_pages"`
	Confidence       float64  `json:"confidence"`
	WordCount        int      `json:"word_count"`
	LineCount        int      `json:"line_count"`
	UsedOCR          *bool    `json:"used_ocr"`
	ExtractionPath   string   `json:"extraction_path"`
	PagesProcessed   int      `json:"pages_processed"`
	DetectedLines    []string `json:"detected_lines"`
	ImageFormat      string   `json:"image_format,omitempty"`
	ImageWidth       int      `json:"image_width,omitempty"`
	ImageHeight      int      `json:"image_height,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status                 string `json:"status"`
	Service                string `json:"service"`
	Version                string `json:"version"`
	TesseractAvailable     bool   `json:"tesseract_available"`
	PDFRasterizerAvailable bool   `json:"pdf_rasterizer_available"`
}

// RootResponse is the body of GET /.
type RootResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
}
