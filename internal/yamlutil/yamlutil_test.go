package yamlutil_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-texhtml/internal/yamlutil"
)

type testConfig struct {
	Name  string   `yaml:"name"`
	DPI   int      `yaml:"dpi"`
	Lines []string `yaml:"lines"`
}

// ---------------------------------------------------------------------------
// TestUnmarshalStrict
// ---------------------------------------------------------------------------

func TestUnmarshalStrict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		data      []byte
		dest      any
		wantErr   error
		wantAnErr bool
	}{
		{name: "valid", data: []byte("name: display\ndpi: 300\nlines: [a, b]"), dest: &testConfig{}},
		{name: "nil data", data: nil, dest: &testConfig{}, wantErr: yamlutil.ErrNilData},
		{name: "nil destination", data: []byte("name: x"), dest: nil, wantErr: yamlutil.ErrNilDestination},
		{name: "unknown field", data: []byte("name: x\nbogus: 1"), dest: &testConfig{}, wantAnErr: true},
		{name: "syntax error", data: []byte("name: [unclosed"), dest: &testConfig{}, wantAnErr: true},
		{name: "backslashes survive", data: []byte(`lines: ['\usepackage{bm}']`), dest: &testConfig{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := yamlutil.UnmarshalStrict(tt.data, tt.dest)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("UnmarshalStrict() error = %v, want %v", err, tt.wantErr)
				}
			case tt.wantAnErr:
				if err == nil || !strings.HasPrefix(err.Error(), "yamlutil:") {
					t.Errorf("UnmarshalStrict() error = %v, want yamlutil error", err)
				}
			default:
				if err != nil {
					t.Errorf("UnmarshalStrict() unexpected error: %v", err)
				}
			}
		})
	}
}

func TestUnmarshalStrict_Values(t *testing.T) {
	t.Parallel()

	var cfg testConfig
	if err := yamlutil.UnmarshalStrict([]byte("name: inline\ndpi: 150\nlines: ['\\usepackage{bm}']"), &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "inline" || cfg.DPI != 150 {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.Lines) != 1 || cfg.Lines[0] != `\usepackage{bm}` {
		t.Errorf("Lines = %q, want [\\usepackage{bm}]", cfg.Lines)
	}
}

func TestUnmarshalStrict_TooLarge(t *testing.T) {
	t.Parallel()

	data := []byte("name: " + strings.Repeat("x", yamlutil.MaxInputSize))
	if err := yamlutil.UnmarshalStrict(data, &testConfig{}); !errors.Is(err, yamlutil.ErrInputTooLarge) {
		t.Errorf("UnmarshalStrict() error = %v, want ErrInputTooLarge", err)
	}
}

// ---------------------------------------------------------------------------
// TestReadFileStrict
// ---------------------------------------------------------------------------

func TestReadFileStrict(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(path, []byte("name: file\ndpi: 72\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var cfg testConfig
	if err := yamlutil.ReadFileStrict(path, &cfg); err != nil {
		t.Fatalf("ReadFileStrict() error = %v", err)
	}
	if cfg.Name != "file" || cfg.DPI != 72 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestReadFileStrict_Missing(t *testing.T) {
	t.Parallel()

	err := yamlutil.ReadFileStrict(filepath.Join(t.TempDir(), "none.yaml"), &testConfig{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadFileStrict() error = %v, want os.ErrNotExist", err)
	}
}

// ---------------------------------------------------------------------------
// TestMarshal
// ---------------------------------------------------------------------------

func TestMarshal_RoundTrip(t *testing.T) {
	t.Parallel()

	in := testConfig{Name: "display", DPI: 300, Lines: []string{`\usepackage{amsmath}`}}
	data, err := yamlutil.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}

	var out testConfig
	if err := yamlutil.UnmarshalStrict(data, &out); err != nil {
		t.Fatalf("UnmarshalStrict(Marshal()) error = %v\n%s", err, data)
	}
	if out.Name != in.Name || out.DPI != in.DPI || out.Lines[0] != in.Lines[0] {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}
