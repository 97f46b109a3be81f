package pdf

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
)

// PageImage is a PNG rendered by pdftoppm.
type PageImage struct {
	path string
	once sync.Once
	err  error
}

// Path returns the file location.
func (p *PageImage) Path() string { return p.path }

// Bytes reads the rendered PNG.
func (p *PageImage) Bytes() ([]byte, error) {
	b, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("read page image: %w", err)
	}
	return b, nil
}

// Close deletes the file. A file that is already gone is not an error.
func (p *PageImage) Close() error {
	p.once.Do(func() {
		if err := os.Remove(p.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			p.err = fmt.Errorf("remove page image: %w", err)
		}
	})
	return p.err
}
