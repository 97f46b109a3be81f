package billocr

import (
	"time"

	documentuc "github.com/kailas-cloud/billocr/internal/usecase/document"
)

// Fields are the structured attributes parsed from a bill. nil means not found.
type Fields struct {
	Total         *float64
	Title         *string
	Date          *string
	InvoiceNumber *string
	Vendor        *string
}

// Result is the outcome of one extraction.
type Result struct {
	FileID      string
	Filename    string
	ContentType string
	FileSize    int64

	Text   string
	Fields Fields

	// Confidence is a 0-100 word mean for images and 1.0 or 0.8 for PDFs.
	Confidence     float64
	Path           string
	TotalPages     *int  // PDFs only
	UsedOCR        *bool // PDFs only
	PagesProcessed int
	WordCount      int
	DetectedLines  []string

	ProcessingTime time.Duration
}

func resultFromDomain(res documentuc.Result) *Result {
	ext := res.Extraction
	return &Result{
		FileID:      res.Document.ID(),
		Filename:    res.Document.Filename(),
		ContentType: res.Document.ContentType(),
		FileSize:    res.Document.Size(),
		Text:        ext.Text,
		Fields: Fields{
			Total:         res.Fields.Total,
			Title:         res.Fields.Title,
			Date:          res.Fields.Date,
			InvoiceNumber: res.Fields.InvoiceNumber,
			Vendor:        res.Fields.Vendor,
		},
		Confidence:     ext.Confidence,
		Path:           string(ext.Path),
		TotalPages:     ext.TotalPages,
		UsedOCR:        ext.UsedOCR,
		PagesProcessed: ext.PagesProcessed,
		WordCount:      ext.WordCount,
		DetectedLines:  ext.DetectedLines,
		ProcessingTime: res.ProcessingTime,
	}
}
