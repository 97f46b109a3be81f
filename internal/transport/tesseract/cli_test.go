package tesseract

import (
	"context"
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/kailas-cloud/billocr/internal/scratch"
)

const sampleTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t800\t600\t-1\t\n" +
	"2\t1\t1\t0\t0\t0\t10\t10\t300\t40\t-1\t\n" +
	"4\t1\t1\t1\t1\t0\t10\t10\t300\t40\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t10\t10\t120\t40\t96.5\tTOTAL:\n" +
	"5\t1\t1\t1\t1\t2\t140\t10\t100\t40\t91\t$49.14\n" +
	"5\t1\t1\t1\t1\t3\t250\t10\t10\t40\t-1\t \n"

func TestParseConfidences_WordRowsOnly(t *testing.T) {
	got, err := ParseConfidences([]byte(sampleTSV))
	if err != nil {
		t.Fatalf("ParseConfidences: %v", err)
	}
	want := []float64{96, 91, -1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseConfidences_CRLFAndJunk(t *testing.T) {
	tsv := "level\tconf\ttext\r\n5\t88\tACME\r\n5\tnope\tX\r\n5\r\n3\t70\t\r\n"
	got, err := ParseConfidences([]byte(tsv))
	if err != nil {
		t.Fatalf("ParseConfidences: %v", err)
	}
	if !reflect.DeepEqual(got, []float64{88}) {
		t.Errorf("got %v, want [88]", got)
	}
}

func TestParseConfidences_TruncatesToIntegerScores(t *testing.T) {
	tsv := "level\tconf\ttext\n5\t90.7\tACME\n5\t0.4\t~\n5\t-1\t\n"
	got, err := ParseConfidences([]byte(tsv))
	if err != nil {
		t.Fatalf("ParseConfidences: %v", err)
	}
	if !reflect.DeepEqual(got, []float64{90, 0, -1}) {
		t.Errorf("got %v, want [90 0 -1]", got)
	}
}

func TestParseConfidences_HeaderOnly(t *testing.T) {
	got, err := ParseConfidences([]byte("level\tconf\ttext\n"))
	if err != nil {
		t.Fatalf("ParseConfidences: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no confidences, got %v", got)
	}
}

func TestParseConfidences_MissingHeader(t *testing.T) {
	for _, in := range []string{"", "5\t1\t90\tword\n", "a\tb\tc\n"} {
		if _, err := ParseConfidences([]byte(in)); !errors.Is(err, errNoTSVHeader) {
			t.Errorf("ParseConfidences(%q) err = %v, want errNoTSVHeader", in, err)
		}
	}
}

func TestCLI_Recognize(t *testing.T) {
	runner := &mockRunner{
		onRun: func(args []string) ([]byte, []byte, error) {
			out := args[1]
			if err := os.WriteFile(out+".txt", []byte("INVOICE\nTOTAL: $49.14\n"), 0o600); err != nil {
				return nil, nil, err
			}
			return nil, nil, os.WriteFile(out+".tsv", []byte(sampleTSV), 0o600)
		},
	}
	root := t.TempDir()
	cli := NewCLI(&Config{
		Command: "tesseract",
		Lang:    "eng",
		PSM:     6,
		Scratch: scratch.NewSpace(root),
		Runner:  runner,
	})

	rec, err := cli.Recognize(context.Background(), []byte("png-bytes"))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if rec.Text != "INVOICE\nTOTAL: $49.14\n" {
		t.Errorf("Text = %q", rec.Text)
	}
	if len(rec.Confidences) != 3 {
		t.Errorf("Confidences = %v", rec.Confidences)
	}

	if len(runner.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(runner.calls))
	}
	call := runner.calls[0]
	if call.name != "tesseract" {
		t.Errorf("command = %q", call.name)
	}
	wantTail := []string{"-l", "eng", "--psm", "6", "txt", "tsv"}
	if got := call.args[2:]; !reflect.DeepEqual(got, wantTail) {
		t.Errorf("args tail = %v, want %v", got, wantTail)
	}
	if runner.input != "png-bytes" {
		t.Errorf("raster not written to input file, got %q", runner.input)
	}

	assertEmpty(t, root)
}

func TestCLI_Recognize_EngineError(t *testing.T) {
	runner := &mockRunner{
		onRun: func([]string) ([]byte, []byte, error) {
			return nil, []byte("Error in pixReadMem: Unknown format\n"), errors.New("exit status 1")
		},
	}
	root := t.TempDir()
	cli := NewCLI(&Config{Command: "tesseract", Lang: "eng", Scratch: scratch.NewSpace(root), Runner: runner})

	_, err := cli.Recognize(context.Background(), []byte("junk"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "Unknown format") {
		t.Errorf("expected stderr in error, got %v", err)
	}
	assertEmpty(t, root)
}

func TestCLI_Recognize_MissingOutput(t *testing.T) {
	runner := &mockRunner{onRun: func([]string) ([]byte, []byte, error) { return nil, nil, nil }}
	root := t.TempDir()
	cli := NewCLI(&Config{Command: "tesseract", Lang: "eng", Scratch: scratch.NewSpace(root), Runner: runner})

	if _, err := cli.Recognize(context.Background(), []byte("x")); err == nil {
		t.Fatal("expected error when tesseract writes nothing")
	}
	assertEmpty(t, root)
}

func TestCLI_Args(t *testing.T) {
	cli := NewCLI(&Config{Command: "tesseract", Lang: "deu", TessdataDir: "/td"})
	got := cli.args("in", "out")
	want := []string{"in", "out", "-l", "deu", "--tessdata-dir", "/td", "txt", "tsv"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("args = %v, want %v", got, want)
	}
}

func TestCLI_Available(t *testing.T) {
	ok := NewCLI(&Config{Command: "tesseract", Runner: &mockRunner{}})
	if !ok.Available(context.Background()) {
		t.Error("expected available")
	}

	missing := NewCLI(&Config{Command: "tesseract", Runner: &mockRunner{
		onRun: func([]string) ([]byte, []byte, error) { return nil, nil, errors.New("executable file not found") },
	}})
	if missing.Available(context.Background()) {
		t.Error("expected unavailable")
	}
}

func TestCLI_Available_ProbeArgs(t *testing.T) {
	runner := &mockRunner{}
	NewCLI(&Config{Command: "/opt/tess", Runner: runner}).Available(context.Background())
	if len(runner.calls) != 1 || runner.calls[0].name != "/opt/tess" || !reflect.DeepEqual(runner.calls[0].args, []string{"--version"}) {
		t.Errorf("unexpected probe call %+v", runner.calls)
	}
}

func TestEmbedded_NameMatchesLabel(t *testing.T) {
	if (&Embedded{}).Name() != EngineEmbedded {
		t.Error("unexpected engine name")
	}
}

func assertEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("scratch not released, %d entries left", len(entries))
	}
}

// --- Mocks ---

type runCall struct {
	name string
	args []string
}

type mockRunner struct {
	calls []runCall
	input string
	onRun func(args []string) ([]byte, []byte, error)
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	m.calls = append(m.calls, runCall{name: name, args: args})
	if len(args) > 0 {
		if b, err := os.ReadFile(args[0]); err == nil {
			m.input = string(b)
		}
	}
	if m.onRun == nil {
		return []byte("tesseract 5.3.0"), nil, nil
	}
	return m.onRun(args)
}
