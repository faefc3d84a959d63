package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if len(cfg.Tags) != 0 {
		t.Errorf("Tags = %v, want empty (built-in rules)", cfg.Tags)
	}
	if cfg.Output.Embed != EmbedData {
		t.Errorf("Output.Embed = %q, want %q", cfg.Output.Embed, EmbedData)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
}

func TestValidateFieldLength(t *testing.T) {
	t.Parallel()

	if err := validateFieldLength("f", "1234567890", 10); err != nil {
		t.Errorf("value at limit: %v", err)
	}
	err := validateFieldLength("f", "12345678901", 10)
	if !errors.Is(err, ErrFieldTooLong) {
		t.Fatalf("error = %v, want ErrFieldTooLong", err)
	}
	if !strings.Contains(err.Error(), "11 chars, max 10") {
		t.Errorf("error = %q, want length detail", err)
	}
}

// ---------------------------------------------------------------------------
// TestConfig_Validate
// ---------------------------------------------------------------------------

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
		wantMsg string
	}{
		{
			name: "tag with delimiters",
			mutate: func(c *Config) {
				c.Tags = []TagConfig{{Name: "inline", Open: "$", Close: "$", Begin: "$", End: "$"}}
			},
		},
		{
			name: "tag with pattern",
			mutate: func(c *Config) {
				c.Tags = []TagConfig{{Name: "env", Pattern: `(?s)\\begin\{math\}(.+?)\\end\{math\}`}}
			},
		},
		{
			name:    "tag without name",
			mutate:  func(c *Config) { c.Tags = []TagConfig{{Open: "$", Close: "$"}} },
			wantErr: ErrInvalidValue,
			wantMsg: "tags[0].name",
		},
		{
			name:    "tag without delimiters or pattern",
			mutate:  func(c *Config) { c.Tags = []TagConfig{{Name: "x", Open: "$"}} },
			wantErr: ErrInvalidValue,
			wantMsg: "tags[0].pattern",
		},
		{
			name:    "tag pattern does not compile",
			mutate:  func(c *Config) { c.Tags = []TagConfig{{Name: "x", Pattern: `(`}} },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "tag pattern without group",
			mutate:  func(c *Config) { c.Tags = []TagConfig{{Name: "x", Pattern: `\$.+\$`}} },
			wantErr: ErrInvalidValue,
			wantMsg: "capture group",
		},
		{
			name: "duplicate tag names",
			mutate: func(c *Config) {
				c.Tags = []TagConfig{{Name: "x", Open: "$", Close: "$"}, {Name: "x", Open: "$$", Close: "$$"}}
			},
			wantErr: ErrInvalidValue,
			wantMsg: "duplicate",
		},
		{
			name:    "delimiter too long",
			mutate:  func(c *Config) { c.Tags = []TagConfig{{Name: "x", Open: strings.Repeat("$", 21), Close: "$"}} },
			wantErr: ErrFieldTooLong,
		},
		{
			name:    "template name with path",
			mutate:  func(c *Config) { c.Toolchain.Template = "../evil" },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "unknown format",
			mutate:  func(c *Config) { c.Toolchain.Format = "gif" },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "negative dpi",
			mutate:  func(c *Config) { c.Toolchain.DPI = -1 },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "dpi too high",
			mutate:  func(c *Config) { c.Toolchain.DPI = MaxDPI + 1 },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "bad timeout",
			mutate:  func(c *Config) { c.Toolchain.Timeout = "soon" },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Toolchain.Timeout = "0s" },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "command args without name",
			mutate:  func(c *Config) { c.Toolchain.Rasterize.Args = []string{"-q"} },
			wantErr: ErrInvalidValue,
			wantMsg: "toolchain.rasterize",
		},
		{
			name:    "unknown embed mode",
			mutate:  func(c *Config) { c.Output.Embed = "inline" },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "store without dir",
			mutate:  func(c *Config) { c.Output.Embed = EmbedStore },
			wantErr: ErrInvalidValue,
			wantMsg: "output.storeDir",
		},
		{
			name: "store with dir",
			mutate: func(c *Config) {
				c.Output.Embed = EmbedStore
				c.Output.StoreDir = "/var/lib/texhtml"
			},
		},
		{
			name:    "image template does not parse",
			mutate:  func(c *Config) { c.Output.ImageTemplate = `<img src="{{.Payload">` },
			wantErr: ErrInvalidValue,
			wantMsg: "output.imageTemplate",
		},
		{
			name:    "reference marker does not compile",
			mutate:  func(c *Config) { c.References.Marker = `[` },
			wantErr: ErrInvalidValue,
			wantMsg: "references.marker",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Validate() error = %q, want to contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestToolchainConfig_TimeoutDuration(t *testing.T) {
	t.Parallel()

	if got := (ToolchainConfig{}).TimeoutDuration(); got != 0 {
		t.Errorf("unset timeout = %v, want 0", got)
	}
	if got := (ToolchainConfig{Timeout: "1m30s"}).TimeoutDuration(); got != 90*time.Second {
		t.Errorf("TimeoutDuration() = %v, want 1m30s", got)
	}
}

// ---------------------------------------------------------------------------
// TestLoadConfig
// ---------------------------------------------------------------------------

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "texhtml.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("empty name returns ErrEmptyConfigName", func(t *testing.T) {
		t.Parallel()

		if _, err := LoadConfig(""); !errors.Is(err, ErrEmptyConfigName) {
			t.Errorf("error = %v, want ErrEmptyConfigName", err)
		}
	})

	t.Run("full file loads", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, `tags:
  - name: display
    open: "$$"
    close: "$$"
    begin: '$\displaystyle '
    end: "$"
toolchain:
  classOptions: 12pt
  preamble:
    - '\usepackage{bm}'
  format: svg
  dpi: 200
  timeout: 10s
  rasterize:
    name: dvisvgm
    args: ["--no-fonts", "-o", "{output}", "{input}"]
output:
  embed: store
  storeDir: /tmp/texhtml-store
  deferred: true
references:
  marker: '(?is)<hr class="refs".*\z'
`)
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if len(cfg.Tags) != 1 || cfg.Tags[0].Begin != `$\displaystyle ` {
			t.Errorf("Tags = %+v", cfg.Tags)
		}
		if cfg.Toolchain.Preamble[0] != `\usepackage{bm}` {
			t.Errorf("Preamble = %q", cfg.Toolchain.Preamble)
		}
		if cfg.Toolchain.TimeoutDuration() != 10*time.Second {
			t.Errorf("Timeout = %q", cfg.Toolchain.Timeout)
		}
		if cfg.Toolchain.Rasterize.Name != "dvisvgm" || len(cfg.Toolchain.Rasterize.Args) != 4 {
			t.Errorf("Rasterize = %+v", cfg.Toolchain.Rasterize)
		}
		if cfg.Output.Embed != EmbedStore || !cfg.Output.Deferred {
			t.Errorf("Output = %+v", cfg.Output)
		}
	})

	t.Run("nonexistent file path returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("unknown name returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfig("texhtml-config-that-does-not-exist")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("invalid YAML returns ErrConfigParse", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfig(writeConfig(t, "tags: [unclosed"))
		if !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("unknown field returns ErrConfigParse in strict mode", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfig(writeConfig(t, "output:\n  embedd: data\n"))
		if !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("validation errors surface", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfig(writeConfig(t, "toolchain:\n  format: bmp\n"))
		if !errors.Is(err, ErrInvalidValue) {
			t.Errorf("error = %v, want ErrInvalidValue", err)
		}
	})
}

func TestSearchPaths(t *testing.T) {
	t.Parallel()

	paths := SearchPaths("site")
	if len(paths) < 2 || paths[0] != "site.yaml" || paths[1] != "site.yml" {
		t.Fatalf("SearchPaths() = %v, want local paths first", paths)
	}
	for _, p := range paths[2:] {
		if !strings.Contains(p, AppDir) {
			t.Errorf("user path %q missing %q", p, AppDir)
		}
	}
}
