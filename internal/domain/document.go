package domain

// TextSource tags where a page's text came from.
type TextSource string

// Text sources.
const (
	SourceDigital TextSource = "digital"
	SourceOCR     TextSource = "ocr"
)

// PDFPath is the branch the PDF pipeline took for a whole document.
type PDFPath string

// PDF extraction paths.
const (
	PathImage       PDFPath = "image"
	PathDigital     PDFPath = "digital"
	PathOCRFallback PDFPath = "ocr-fallback"
)

// Confidence values reported by the PDF pipeline. Image OCR reports a 0-100 mean instead.
const (
	DigitalConfidence  = 1.0
	FallbackConfidence = 0.8
)

// PageResult is the extraction output of a single page.
type PageResult struct {
	Index       int
	Text        string
	Source      TextSource
	Confidences []float64 // ocr only
}

// Recognition is the output of one OCR pass over a raster.
// Confidences are per-word integer scores on a 0-100 scale; non-positive values mean "unknown".
type Recognition struct {
	Text        string
	Confidences []float64
}

// ImageInfo describes a decoded raster.
type ImageInfo struct {
	Format string
	Width  int
	Height int
}

// ExtractionResult aggregates page results for one document.
type ExtractionResult struct {
	Text           string
	Confidence     float64
	Path           PDFPath
	TotalPages     *int  // pdf only
	UsedOCR        *bool // pdf only
	PagesProcessed int
	WordCount      int
	LineCount      int
	DetectedLines  []string
	Image          *ImageInfo // image only
}
