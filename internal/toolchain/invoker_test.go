package toolchain_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alnah/go-texhtml/internal/imagesize"
	"github.com/alnah/go-texhtml/internal/toolchain"
)

// fakeRunner records calls and writes the configured files into the job
// directory, standing in for latex/dvipng.
type fakeRunner struct {
	mu     sync.Mutex
	calls  [][]string
	writes map[string]string // program name -> file name written on success
	body   string
	stdout string
	stderr string
	err    error
	hang   bool
}

func (f *fakeRunner) Run(ctx context.Context, dir, name string, args ...string) (string, string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{name}, args...))
	f.mu.Unlock()

	if f.hang {
		<-ctx.Done()
		return "", "", ctx.Err()
	}
	if f.err != nil {
		return f.stdout, f.stderr, f.err
	}
	if file, ok := f.writes[name]; ok {
		if err := os.WriteFile(filepath.Join(dir, file), []byte(f.body), 0o600); err != nil {
			return "", "", err
		}
	}
	return f.stdout, f.stderr, nil
}

const testDocument = `\documentclass[<<.ClassOptions>>]{article}
<<range .Preamble>><<.>>
<<end>>\begin{document}<<.Begin>><<.Markup>><<.End>>\end{document}`

func newInvoker(t *testing.T, cfg toolchain.Config, runner *fakeRunner) *toolchain.Invoker {
	t.Helper()
	if cfg.Document == "" {
		cfg.Document = testDocument
	}
	inv, err := toolchain.New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	inv.Runner = runner
	return inv
}

// ---------------------------------------------------------------------------
// TestNew - Configuration validation and defaults
// ---------------------------------------------------------------------------

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      toolchain.Config
		wantErr  error
		wantProg []string
	}{
		{
			name:     "defaults to latex and dvipng",
			cfg:      toolchain.Config{Document: testDocument},
			wantProg: []string{"latex", "dvipng"},
		},
		{
			name:     "svg selects dvisvgm",
			cfg:      toolchain.Config{Document: testDocument, Format: toolchain.FormatSVG},
			wantProg: []string{"latex", "dvisvgm"},
		},
		{
			name: "custom commands kept",
			cfg: toolchain.Config{
				Document:     testDocument,
				Intermediate: toolchain.Command{Name: "pdflatex"},
				Rasterize:    toolchain.Command{Name: "magick"},
			},
			wantProg: []string{"pdflatex", "magick"},
		},
		{
			name:    "empty document",
			cfg:     toolchain.Config{},
			wantErr: toolchain.ErrInvalidTemplate,
		},
		{
			name:    "unparseable document",
			cfg:     toolchain.Config{Document: "<<.Markup"},
			wantErr: toolchain.ErrInvalidTemplate,
		},
		{
			name:    "unknown format",
			cfg:     toolchain.Config{Document: testDocument, Format: "gif"},
			wantErr: toolchain.ErrInvalidFormat,
		},
		{
			name: "blank command name",
			cfg: toolchain.Config{
				Document:  testDocument,
				Rasterize: toolchain.Command{Name: " "},
			},
			wantErr: toolchain.ErrInvalidCommand,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			inv, err := toolchain.New(tt.cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("New() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() unexpected error: %v", err)
			}
			got := inv.Programs()
			if strings.Join(got, ",") != strings.Join(tt.wantProg, ",") {
				t.Errorf("Programs() = %v, want %v", got, tt.wantProg)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestIntermediate - TeX document generation and compilation
// ---------------------------------------------------------------------------

func TestIntermediate_Success(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{writes: map[string]string{"latex": "job.dvi"}}
	inv := newInvoker(t, toolchain.Config{
		ClassOptions: "12pt",
		Preamble:     []string{`\usepackage{bm}`},
	}, runner)
	dir := t.TempDir()

	dvi, err := inv.Intermediate(context.Background(), dir, `$\displaystyle `, "$", `\frac{a}{b}`)
	if err != nil {
		t.Fatalf("Intermediate() error = %v", err)
	}
	if dvi != filepath.Join(dir, "job.dvi") {
		t.Errorf("Intermediate() = %q, want job.dvi in %q", dvi, dir)
	}

	tex, err := os.ReadFile(filepath.Join(dir, "job.tex"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`[12pt]`, `\usepackage{bm}`, `$\displaystyle \frac{a}{b}$`} {
		if !strings.Contains(string(tex), want) {
			t.Errorf("job.tex missing %q:\n%s", want, tex)
		}
	}

	want := []string{"latex", "-interaction=nonstopmode", "-halt-on-error", "job.tex"}
	if strings.Join(runner.calls[0], " ") != strings.Join(want, " ") {
		t.Errorf("called with %v, want %v", runner.calls[0], want)
	}
}

func TestIntermediate_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		runner   *fakeRunner
		wantDiag string
	}{
		{
			name: "tex error lines",
			runner: &fakeRunner{
				stdout: "This is pdfTeX\n! Undefined control sequence.\nl.7 \\foo\n",
				err:    errors.New("exit status 1"),
			},
			wantDiag: "! Undefined control sequence.",
		},
		{
			name: "stderr fallback",
			runner: &fakeRunner{
				stderr: "latex: command not usable",
				err:    errors.New("exit status 1"),
			},
			wantDiag: "latex: command not usable",
		},
		{
			name:     "no output at all",
			runner:   &fakeRunner{err: errors.New("exit status 2")},
			wantDiag: "latex: exit status 2",
		},
		{
			name:     "zero exit without artifact",
			runner:   &fakeRunner{},
			wantDiag: "latex produced no job.dvi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			inv := newInvoker(t, toolchain.Config{}, tt.runner)
			_, err := inv.Intermediate(context.Background(), t.TempDir(), "$", "$", "x")

			var stageErr *toolchain.StageError
			if !errors.As(err, &stageErr) {
				t.Fatalf("Intermediate() error = %v, want *StageError", err)
			}
			if !errors.Is(err, toolchain.ErrToolchain) {
				t.Errorf("error should wrap ErrToolchain: %v", err)
			}
			if stageErr.Stage != toolchain.StageIntermediate {
				t.Errorf("Stage = %q, want %q", stageErr.Stage, toolchain.StageIntermediate)
			}
			if !strings.Contains(stageErr.Diagnostic, tt.wantDiag) {
				t.Errorf("Diagnostic = %q, want to contain %q", stageErr.Diagnostic, tt.wantDiag)
			}
		})
	}
}

func TestIntermediate_DiagnosticFromLog(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "job.log"), []byte("noise\n! Missing $ inserted.\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	inv := newInvoker(t, toolchain.Config{}, &fakeRunner{err: errors.New("exit status 1")})

	_, err := inv.Intermediate(context.Background(), dir, "$", "$", "x")
	if err == nil || !strings.Contains(err.Error(), "! Missing $ inserted.") {
		t.Errorf("Intermediate() error = %v, want log diagnostic", err)
	}
}

func TestIntermediate_Timeout(t *testing.T) {
	t.Parallel()

	inv := newInvoker(t, toolchain.Config{Timeout: 20 * time.Millisecond}, &fakeRunner{hang: true})

	_, err := inv.Intermediate(context.Background(), t.TempDir(), "$", "$", "x")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Intermediate() error = %v, want DeadlineExceeded", err)
	}
	if !errors.Is(err, toolchain.ErrToolchain) {
		t.Errorf("timeout should wrap ErrToolchain: %v", err)
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("error = %q, want timeout message", err)
	}
}

// ---------------------------------------------------------------------------
// TestRasterize - DVI to image
// ---------------------------------------------------------------------------

func TestRasterize_PNG(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{writes: map[string]string{"dvipng": "job.png"}}
	inv := newInvoker(t, toolchain.Config{DPI: 150}, runner)
	dir := t.TempDir()

	out, err := inv.Rasterize(context.Background(), filepath.Join(dir, "job.dvi"))
	if err != nil {
		t.Fatalf("Rasterize() error = %v", err)
	}
	if out != filepath.Join(dir, "job.png") {
		t.Errorf("Rasterize() = %q", out)
	}

	want := "dvipng -q -D 150 -T tight -bg Transparent -o job.png job.dvi"
	if got := strings.Join(runner.calls[0], " "); got != want {
		t.Errorf("called with %q, want %q", got, want)
	}
}

func TestRasterize_SVGNormalizesPoints(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{
		writes: map[string]string{"dvisvgm": "job.svg"},
		body:   `<?xml version='1.0'?><svg version='1.1' width='72.27pt' height='36.135pt' viewBox='0 0 72 36'></svg>`,
	}
	inv := newInvoker(t, toolchain.Config{Format: toolchain.FormatSVG}, runner)
	dir := t.TempDir()

	out, err := inv.Rasterize(context.Background(), filepath.Join(dir, "job.dvi"))
	if err != nil {
		t.Fatalf("Rasterize() error = %v", err)
	}

	size, err := imagesize.Read(out)
	if err != nil {
		t.Fatalf("imagesize.Read() error = %v", err)
	}
	if size.Width != 96 || size.Height != 48 {
		t.Errorf("size = %+v, want 96x48", size)
	}
}

func TestRasterize_MissingOutput(t *testing.T) {
	t.Parallel()

	inv := newInvoker(t, toolchain.Config{}, &fakeRunner{})

	_, err := inv.Rasterize(context.Background(), filepath.Join(t.TempDir(), "job.dvi"))
	var stageErr *toolchain.StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != toolchain.StageRasterize {
		t.Errorf("Rasterize() error = %v, want rasterize StageError", err)
	}
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	base := newInvoker(t, toolchain.Config{}, &fakeRunner{})
	same := newInvoker(t, toolchain.Config{}, &fakeRunner{})
	dpi := newInvoker(t, toolchain.Config{DPI: 600}, &fakeRunner{})
	pre := newInvoker(t, toolchain.Config{Preamble: []string{`\usepackage{bm}`}}, &fakeRunner{})

	if base.Fingerprint() != same.Fingerprint() {
		t.Error("equal configurations must share a fingerprint")
	}
	if base.Fingerprint() == dpi.Fingerprint() {
		t.Error("dpi must change the fingerprint")
	}
	if base.Fingerprint() == pre.Fingerprint() {
		t.Error("preamble must change the fingerprint")
	}
}
