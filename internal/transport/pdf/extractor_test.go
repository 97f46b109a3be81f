package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/kailas-cloud/billocr/internal/scratch"
)

// buildPDF assembles a minimal PDF with one page per entry. An empty entry
// yields a page with an empty content stream.
func buildPDF(pages ...string) []byte {
	var kids strings.Builder
	for i := range pages {
		fmt.Fprintf(&kids, "%d 0 R ", 4+2*i)
	}

	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids.String(), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	for i, text := range pages {
		objs = append(objs, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			5+2*i))
		content := ""
		if text != "" {
			content = fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		}
		objs = append(objs, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return b.Bytes()
}

func newTestExtractor(t *testing.T, runner *mockRunner) (*Extractor, string) {
	t.Helper()
	root := t.TempDir()
	return NewExtractor(&Config{
		Pdftoppm: "pdftoppm",
		DPI:      200,
		Scratch:  scratch.NewSpace(root),
		Runner:   runner,
	}), root
}

func TestOpen_PageCountAndText(t *testing.T) {
	ex, _ := newTestExtractor(t, &mockRunner{})
	doc, err := ex.Open(context.Background(), buildPDF("", "", "TOTAL: $49.14", "", ""))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = doc.Close() }()

	if doc.PageCount() != 5 {
		t.Fatalf("PageCount = %d, want 5", doc.PageCount())
	}

	for i := 0; i < 5; i++ {
		text, err := doc.PageText(i)
		if err != nil {
			t.Fatalf("PageText(%d): %v", i, err)
		}
		hasText := strings.TrimSpace(text) != ""
		if i == 2 {
			if !strings.Contains(text, "TOTAL: $49.14") {
				t.Errorf("page 3 text = %q", text)
			}
		} else if hasText {
			t.Errorf("page %d should be empty, got %q", i+1, text)
		}
	}
}

func TestOpen_Malformed(t *testing.T) {
	ex, _ := newTestExtractor(t, &mockRunner{})
	valid := buildPDF("hello")

	for name, data := range map[string][]byte{
		"not a pdf": []byte("definitely not a pdf"),
		"empty":     {},
		"truncated": valid[:len(valid)/2],
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := ex.Open(context.Background(), data); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestPageText_OutOfRange(t *testing.T) {
	ex, _ := newTestExtractor(t, &mockRunner{})
	doc, err := ex.Open(context.Background(), buildPDF("a"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := doc.PageText(1); err == nil {
		t.Error("expected out-of-range error")
	}
	if _, err := doc.PageText(-1); err == nil {
		t.Error("expected out-of-range error")
	}
}

func TestRasterize_ArgsAndCleanup(t *testing.T) {
	runner := &mockRunner{}
	ex, root := newTestExtractor(t, runner)
	doc, err := ex.Open(context.Background(), buildPDF("", "", ""))
	if err != nil {
		t.Fatal(err)
	}

	img, err := doc.Rasterize(context.Background(), 1)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	b, err := img.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if string(b) != "png:2" {
		t.Errorf("Bytes = %q", b)
	}

	call := runner.calls[0]
	if call.name != "pdftoppm" {
		t.Errorf("command = %q", call.name)
	}
	wantHead := []string{"-f", "2", "-l", "2", "-r", "200", "-png", "-singlefile"}
	if !reflect.DeepEqual(call.args[:len(wantHead)], wantHead) {
		t.Errorf("args = %v, want prefix %v", call.args, wantHead)
	}
	src, err := os.ReadFile(call.args[len(wantHead)])
	if err != nil || !bytes.HasPrefix(src, []byte("%PDF-")) {
		t.Errorf("source pdf not written to scratch: %v", err)
	}

	path := img.(*PageImage).Path()
	if err := img.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("page image not removed: %v", err)
	}
	if err := img.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	if err := doc.Close(); err != nil {
		t.Fatalf("doc Close: %v", err)
	}
	entries, _ := os.ReadDir(root)
	if len(entries) != 0 {
		t.Errorf("scratch left behind: %d entries", len(entries))
	}
}

func TestRasterize_SourceWrittenOnce(t *testing.T) {
	runner := &mockRunner{}
	ex, root := newTestExtractor(t, runner)
	doc, err := ex.Open(context.Background(), buildPDF("", "", "", ""))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = doc.Close() }()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			img, err := doc.Rasterize(context.Background(), i)
			if err != nil {
				t.Errorf("Rasterize(%d): %v", i, err)
				return
			}
			_ = img.Close()
		}(i)
	}
	wg.Wait()

	entries, _ := os.ReadDir(root)
	if len(entries) != 1 {
		t.Errorf("expected a single scratch dir, got %d", len(entries))
	}
}

func TestRasterize_Error(t *testing.T) {
	runner := &mockRunner{err: errors.New("exit status 99"), stderr: "Syntax Error: broken xref"}
	ex, _ := newTestExtractor(t, runner)
	doc, err := ex.Open(context.Background(), buildPDF(""))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = doc.Close() }()

	_, err = doc.Rasterize(context.Background(), 0)
	if err == nil || !strings.Contains(err.Error(), "broken xref") {
		t.Errorf("expected pdftoppm stderr in error, got %v", err)
	}
	if _, err := doc.Rasterize(context.Background(), 3); err == nil {
		t.Error("expected out-of-range error")
	}
}

func TestClose_WithoutRasterize(t *testing.T) {
	ex, _ := newTestExtractor(t, &mockRunner{})
	doc, err := ex.Open(context.Background(), buildPDF("x"))
	if err != nil {
		t.Fatal(err)
	}
	if err := doc.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestAvailable(t *testing.T) {
	ex, _ := newTestExtractor(t, &mockRunner{})
	if !ex.Available(context.Background()) {
		t.Error("expected available")
	}
	ex, _ = newTestExtractor(t, &mockRunner{err: errors.New("not found")})
	if ex.Available(context.Background()) {
		t.Error("expected unavailable")
	}
}

func TestNewExtractor_DefaultDPI(t *testing.T) {
	if ex := NewExtractor(&Config{}); ex.dpi != DefaultDPI {
		t.Errorf("dpi = %d, want %d", ex.dpi, DefaultDPI)
	}
}

// --- Mocks ---

type runCall struct {
	name string
	args []string
}

// mockRunner fakes pdftoppm: it writes "<prefix>.png" containing "png:<page>".
type mockRunner struct {
	mu     sync.Mutex
	calls  []runCall
	err    error
	stderr string
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, runCall{name: name, args: args})
	m.mu.Unlock()

	if m.err != nil {
		return nil, []byte(m.stderr), m.err
	}
	if len(args) < 2 || args[0] != "-f" {
		return nil, nil, nil
	}
	prefix := args[len(args)-1]
	return nil, nil, os.WriteFile(prefix+".png", []byte("png:"+args[1]), 0o600)
}
