// Package scratch manages request-scoped temporary directories for the
// external OCR and rasterizer binaries.
package scratch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Space creates scratch directories under a root. An empty root means os.TempDir().
type Space struct {
	root string
}

// NewSpace returns a Space rooted at root.
func NewSpace(root string) Space {
	return Space{root: root}
}

// Acquire creates a fresh directory. The caller must Release it.
func (s Space) Acquire(prefix string) (*Dir, error) {
	path, err := os.MkdirTemp(s.root, prefix+"-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &Dir{path: path}, nil
}

// Dir is a temporary directory owned by one pipeline step.
type Dir struct {
	path string
	once sync.Once
	err  error
}

// Path returns the directory path.
func (d *Dir) Path() string { return d.path }

// Join returns the path of name inside the directory.
func (d *Dir) Join(name string) string { return filepath.Join(d.path, name) }

// WriteFile writes data to name inside the directory and returns its path.
func (d *Dir) WriteFile(name string, data []byte) (string, error) {
	p := d.Join(name)
	if err := os.WriteFile(p, data, 0o600); err != nil {
		return "", fmt.Errorf("write scratch file: %w", err)
	}
	return p, nil
}

// ReadFile reads name from the directory.
func (d *Dir) ReadFile(name string) ([]byte, error) {
	b, err := os.ReadFile(d.Join(name))
	if err != nil {
		return nil, fmt.Errorf("read scratch file: %w", err)
	}
	return b, nil
}

// Release removes the directory and everything in it. Safe to call more than once;
// later calls return the result of the first.
func (d *Dir) Release() error {
	d.once.Do(func() {
		if err := os.RemoveAll(d.path); err != nil {
			d.err = fmt.Errorf("remove scratch dir: %w", err)
		}
	})
	return d.err
}
