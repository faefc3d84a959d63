package texhtml

import (
	"log/slog"
	"regexp"
	"time"

	"github.com/alnah/go-texhtml/internal/toolchain"
)

// Option configures a Converter.
type Option func(*Converter)

// CommandRunner executes external toolchain programs. Implementations must
// run name with args inside dir and honor ctx cancellation.
type CommandRunner = toolchain.CommandRunner

// Command is an external program with arguments. Arguments may use the
// placeholders {input}, {output}, {jobname}, {dpi} and {dir}.
type Command = toolchain.Command

// Toolchain configures the default TeX renderer. Zero fields keep defaults:
// latex then dvipng at 300 dpi, 30s per invocation.
type Toolchain struct {
	Template     string // document template name, see WithAssetPath
	ClassOptions string
	Preamble     []string
	Intermediate Command
	Rasterize    Command
	Format       string // "png" or "svg"
	DPI          int
	WorkDir      string // parent of per-attempt job directories
}

// converterConfig holds options resolved by NewConverter.
type converterConfig struct {
	timeout       time.Duration
	toolchain     Toolchain
	assetPath     string
	runner        CommandRunner
	embed         EmbedMode
	deferred      bool
	imageTemplate string
	errorTemplate string
	scriptTmpl    string
	marker        *regexp.Regexp
}

// WithTimeout sets the timeout of each toolchain invocation.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("texhtml: WithTimeout duration must be positive")
	}
	return func(c *Converter) {
		c.cfg.timeout = d
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTagRules replaces the built-in tag rules. Order is evaluation order.
func WithTagRules(rules ...TagRule) Option {
	return func(c *Converter) {
		c.rules = rules
	}
}

// WithToolchain configures the built-in TeX renderer.
func WithToolchain(tc Toolchain) Option {
	return func(c *Converter) {
		c.cfg.toolchain = tc
	}
}

// WithAssetPath adds a directory of custom document templates
// ({path}/templates/{name}.tex), searched before the built-in ones.
func WithAssetPath(path string) Option {
	return func(c *Converter) {
		c.cfg.assetPath = path
	}
}

// WithCommandRunner replaces the process runner used by the TeX renderer.
func WithCommandRunner(r CommandRunner) Option {
	return func(c *Converter) {
		c.cfg.runner = r
	}
}

// WithRenderer replaces the TeX renderer entirely. Toolchain options are
// then ignored.
func WithRenderer(r Renderer) Option {
	return func(c *Converter) {
		c.renderer = r
	}
}

// WithImageStore writes rendered images into s and references them by file
// URL instead of inlining data URIs.
func WithImageStore(s ImageStore) Option {
	return func(c *Converter) {
		c.store = s
		if s != nil {
			c.cfg.embed = EmbedStore
		}
	}
}

// WithEmbedMode selects the embed mode explicitly. EmbedStore requires
// WithImageStore.
func WithEmbedMode(m EmbedMode) Option {
	return func(c *Converter) {
		c.cfg.embed = m
	}
}

// WithDeferredSource puts payloads in data-tex-src and appends companion
// scripts that assign src after insertion.
func WithDeferredSource(enabled bool) Option {
	return func(c *Converter) {
		c.cfg.deferred = enabled
	}
}

// WithImageTemplate replaces DefaultImageTemplate.
func WithImageTemplate(tmpl string) Option {
	return func(c *Converter) {
		c.cfg.imageTemplate = tmpl
	}
}

// WithErrorTemplate replaces DefaultErrorTemplate. Its output must be a
// <span data-tex-error> element so later conversions can remove it.
func WithErrorTemplate(tmpl string) Option {
	return func(c *Converter) {
		c.cfg.errorTemplate = tmpl
	}
}

// WithScriptTemplate replaces DefaultScriptTemplate.
func WithScriptTemplate(tmpl string) Option {
	return func(c *Converter) {
		c.cfg.scriptTmpl = tmpl
	}
}

// WithReferenceMarker sets the pattern marking the start of the trailing
// reference section. nil disables the carve-out.
func WithReferenceMarker(re *regexp.Regexp) Option {
	return func(c *Converter) {
		c.cfg.marker = re
	}
}
