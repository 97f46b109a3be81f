package domain

import "context"

// PDFDocument gives per-page access to a parsed PDF. Page indexes are zero-based.
// Close releases every scratch artifact the document created.
type PDFDocument interface {
	PageCount() int
	PageText(i int) (string, error)
	Rasterize(ctx context.Context, i int) (PageImage, error)
	Close() error
}

// PageImage is a rendered page. Close deletes it and is safe to call twice.
type PageImage interface {
	Bytes() ([]byte, error)
	Close() error
}
