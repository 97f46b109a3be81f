package upload

import (
	"fmt"
	"io"
	"mime"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/kailas-cloud/billocr/internal/domain"
)

// UnknownSize marks an upload without a size hint.
const UnknownSize int64 = -1

// DefaultMaxFileSize is the default upload limit (10 MiB).
const DefaultMaxFileSize int64 = 10 << 20

// MediaTypePDF is the only non-raster type accepted.
const MediaTypePDF = "application/pdf"

var allowedTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
	"image/bmp":  {},
	"image/tiff": {},
	MediaTypePDF: {},
}

// AllowedTypes returns the accepted media types in sorted order.
func AllowedTypes() []string {
	out := make([]string, 0, len(allowedTypes))
	for t := range allowedTypes {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Document is an accepted upload (immutable value object).
type Document struct {
	id           string
	filename     string
	contentType  string
	declaredSize int64
	data         []byte
}

// ID returns the generated document identifier.
func (d Document) ID() string { return d.id }

// Filename returns the original client filename.
func (d Document) Filename() string { return d.filename }

// ContentType returns the normalized declared media type.
func (d Document) ContentType() string { return d.contentType }

// DeclaredSize returns the size hint sent with the upload, or UnknownSize.
func (d Document) DeclaredSize() int64 { return d.declaredSize }

// Size returns the actual payload size.
func (d Document) Size() int64 { return int64(len(d.data)) }

// Data returns the raw payload.
func (d Document) Data() []byte { return d.data }

// IsPDF reports whether the document goes through the PDF pipeline.
func (d Document) IsPDF() bool { return d.contentType == MediaTypePDF }

// Validator enforces the MIME allow-list and the size limit.
type Validator struct {
	maxSize int64
}

// NewValidator creates a Validator. A non-positive maxSize falls back to DefaultMaxFileSize.
func NewValidator(maxSize int64) Validator {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return Validator{maxSize: maxSize}
}

// MaxSize returns the configured limit in bytes.
func (v Validator) MaxSize() int64 { return v.maxSize }

// Precheck validates the size hint and the declared content type before any payload is read.
// Returns the normalized media type.
func (v Validator) Precheck(contentType string, declaredSize int64) (string, error) {
	if declaredSize > v.maxSize {
		return "", v.tooLarge()
	}
	mediaType := NormalizeMediaType(contentType)
	if _, ok := allowedTypes[mediaType]; !ok {
		return "", fmt.Errorf("%w: %q, allowed types: %s",
			domain.ErrInvalidFileType, contentType, strings.Join(AllowedTypes(), ", "))
	}
	return mediaType, nil
}

// Load runs Precheck, reads at most maxSize+1 bytes from r and rejects oversized payloads.
func (v Validator) Load(r io.Reader, filename, contentType string, declaredSize int64) (Document, error) {
	mediaType, err := v.Precheck(contentType, declaredSize)
	if err != nil {
		return Document{}, err
	}

	data, err := io.ReadAll(io.LimitReader(r, v.maxSize+1))
	if err != nil {
		return Document{}, fmt.Errorf("%w: read upload: %w", domain.ErrValidation, err)
	}
	if int64(len(data)) > v.maxSize {
		return Document{}, v.tooLarge()
	}

	return Document{
		id:           uuid.NewString(),
		filename:     filename,
		contentType:  mediaType,
		declaredSize: declaredSize,
		data:         data,
	}, nil
}

func (v Validator) tooLarge() error {
	return fmt.Errorf("%w: file size exceeds maximum allowed size of %d bytes", domain.ErrFileTooLarge, v.maxSize)
}

// NormalizeMediaType strips parameters and lowercases a Content-Type value.
func NormalizeMediaType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}
