// Package config loads and validates the YAML configuration of texhtml:
// tag rules, toolchain settings, output templates and the reference marker.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"time"

	"github.com/alnah/go-texhtml/internal/fileutil"
	"github.com/alnah/go-texhtml/internal/yamlutil"
)

// AppDir is the directory name under the user config directory.
const AppDir = "go-texhtml"

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxTagNameLength   = 50
	MaxDelimiterLength = 20
	MaxPatternLength   = 500
	MaxWrapLength      = 200  // tag begin/end
	MaxPreambleLength  = 500  // per line
	MaxTemplateLength  = 4096 // image/error template
	MaxPathLength      = 4096
	MaxDPI             = 2400
)

// Embed modes.
const (
	EmbedData  = "data"
	EmbedStore = "store"
)

// Config holds all configuration for conversions.
type Config struct {
	Tags       []TagConfig      `yaml:"tags"`
	Toolchain  ToolchainConfig  `yaml:"toolchain"`
	Output     OutputConfig     `yaml:"output"`
	References ReferencesConfig `yaml:"references"`
	Assets     AssetsConfig     `yaml:"assets"`
}

// TagConfig defines one tag rule. Either Pattern, or both Open and Close,
// must be set. Empty Tags means the built-in rules.
type TagConfig struct {
	Name    string `yaml:"name"`
	Open    string `yaml:"open"`
	Close   string `yaml:"close"`
	Pattern string `yaml:"pattern"` // regexp, group 1 captures the markup
	Begin   string `yaml:"begin"`   // TeX inserted before the markup
	End     string `yaml:"end"`     // TeX inserted after the markup
}

// ToolchainConfig defines how markup is compiled and rasterized.
type ToolchainConfig struct {
	Template     string        `yaml:"template"`     // document template name (default: "default")
	ClassOptions string        `yaml:"classOptions"` // \documentclass options
	Preamble     []string      `yaml:"preamble"`
	Intermediate CommandConfig `yaml:"intermediate"`
	Rasterize    CommandConfig `yaml:"rasterize"`
	Format       string        `yaml:"format"`  // "png" or "svg" (default: "png")
	DPI          int           `yaml:"dpi"`     // raster resolution (default: 300)
	Timeout      string        `yaml:"timeout"` // per invocation, e.g. "30s"
	WorkDir      string        `yaml:"workDir"` // parent of job directories (empty = system temp)
}

// CommandConfig overrides an external command. Empty Name keeps the default.
type CommandConfig struct {
	Name string   `yaml:"name"`
	Args []string `yaml:"args"`
}

// OutputConfig defines how rendered images are embedded.
type OutputConfig struct {
	Embed         string `yaml:"embed"`         // "data" or "store" (default: "data")
	StoreDir      string `yaml:"storeDir"`      // required when embed is "store"
	Deferred      bool   `yaml:"deferred"`      // emit companion scripts that set src late
	ImageTemplate string `yaml:"imageTemplate"` // Go text/template (empty = built-in)
	ErrorTemplate string `yaml:"errorTemplate"` // Go text/template (empty = built-in)
}

// ReferencesConfig defines the trailing reference section kept out of conversion.
type ReferencesConfig struct {
	Marker   string `yaml:"marker"`   // regexp matching the section start (empty = built-in)
	Disabled bool   `yaml:"disabled"` // convert the whole region, references included
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Empty = use embedded assets
}

// TimeoutDuration returns the parsed toolchain timeout, 0 when unset.
// Validate guarantees the value parses.
func (t ToolchainConfig) TimeoutDuration() time.Duration {
	if t.Timeout == "" {
		return 0
	}
	d, _ := time.ParseDuration(t.Timeout)
	return d
}

// Validate checks configuration values for consistency and limits.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Tags))
	for i, tag := range c.Tags {
		if err := tag.validate(i); err != nil {
			return err
		}
		if seen[tag.Name] {
			return fmt.Errorf("%w: tags[%d].name: duplicate %q", ErrInvalidValue, i, tag.Name)
		}
		seen[tag.Name] = true
	}

	if err := c.Toolchain.validate(); err != nil {
		return err
	}
	if err := c.Output.validate(); err != nil {
		return err
	}

	if c.References.Marker != "" {
		if err := validateFieldLength("references.marker", c.References.Marker, MaxPatternLength); err != nil {
			return err
		}
		if _, err := regexp.Compile(c.References.Marker); err != nil {
			return fmt.Errorf("%w: references.marker: %v", ErrInvalidValue, err)
		}
	}

	return validateFieldLength("assets.basePath", c.Assets.BasePath, MaxPathLength)
}

func (t TagConfig) validate(i int) error {
	field := func(name string) string { return fmt.Sprintf("tags[%d].%s", i, name) }

	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: %s: required", ErrInvalidValue, field("name"))
	}
	checks := []struct {
		name  string
		value string
		max   int
	}{
		{"name", t.Name, MaxTagNameLength},
		{"open", t.Open, MaxDelimiterLength},
		{"close", t.Close, MaxDelimiterLength},
		{"pattern", t.Pattern, MaxPatternLength},
		{"begin", t.Begin, MaxWrapLength},
		{"end", t.End, MaxWrapLength},
	}
	for _, ch := range checks {
		if err := validateFieldLength(field(ch.name), ch.value, ch.max); err != nil {
			return err
		}
	}

	if t.Pattern == "" {
		if t.Open == "" || t.Close == "" {
			return fmt.Errorf("%w: %s: pattern or both open and close required", ErrInvalidValue, field("pattern"))
		}
		return nil
	}
	re, err := regexp.Compile(t.Pattern)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidValue, field("pattern"), err)
	}
	if re.NumSubexp() < 1 {
		return fmt.Errorf("%w: %s: needs a capture group for the markup", ErrInvalidValue, field("pattern"))
	}
	return nil
}

func (t ToolchainConfig) validate() error {
	if t.Template != "" && strings.ContainsAny(t.Template, "/\\.") {
		return fmt.Errorf("%w: toolchain.template: %q is not a template name", ErrInvalidValue, t.Template)
	}
	if err := validateFieldLength("toolchain.classOptions", t.ClassOptions, MaxWrapLength); err != nil {
		return err
	}
	for i, line := range t.Preamble {
		if err := validateFieldLength(fmt.Sprintf("toolchain.preamble[%d]", i), line, MaxPreambleLength); err != nil {
			return err
		}
	}
	switch t.Format {
	case "", "png", "svg":
	default:
		return fmt.Errorf("%w: toolchain.format: must be png or svg, got %q", ErrInvalidValue, t.Format)
	}
	if t.DPI < 0 || t.DPI > MaxDPI {
		return fmt.Errorf("%w: toolchain.dpi: must be between 0 and %d, got %d", ErrInvalidValue, MaxDPI, t.DPI)
	}
	if t.Timeout != "" {
		d, err := time.ParseDuration(t.Timeout)
		if err != nil {
			return fmt.Errorf("%w: toolchain.timeout: %v", ErrInvalidValue, err)
		}
		if d <= 0 {
			return fmt.Errorf("%w: toolchain.timeout: must be positive, got %s", ErrInvalidValue, t.Timeout)
		}
	}
	commands := []struct {
		name string
		cmd  CommandConfig
	}{{"intermediate", t.Intermediate}, {"rasterize", t.Rasterize}}
	for _, c := range commands {
		name, cmd := c.name, c.cmd
		if cmd.Name == "" && len(cmd.Args) > 0 {
			return fmt.Errorf("%w: toolchain.%s: args given without name", ErrInvalidValue, name)
		}
		if err := validateFieldLength("toolchain."+name+".name", cmd.Name, MaxPathLength); err != nil {
			return err
		}
	}
	return validateFieldLength("toolchain.workDir", t.WorkDir, MaxPathLength)
}

func (o OutputConfig) validate() error {
	switch o.Embed {
	case "", EmbedData:
	case EmbedStore:
		if o.StoreDir == "" {
			return fmt.Errorf("%w: output.storeDir: required when embed is %q", ErrInvalidValue, EmbedStore)
		}
	default:
		return fmt.Errorf("%w: output.embed: must be %s or %s, got %q", ErrInvalidValue, EmbedData, EmbedStore, o.Embed)
	}
	if err := validateFieldLength("output.storeDir", o.StoreDir, MaxPathLength); err != nil {
		return err
	}
	templates := [][2]string{{"imageTemplate", o.ImageTemplate}, {"errorTemplate", o.ErrorTemplate}}
	for _, nt := range templates {
		name, tmpl := nt[0], nt[1]
		if tmpl == "" {
			continue
		}
		if err := validateFieldLength("output."+name, tmpl, MaxTemplateLength); err != nil {
			return err
		}
		if _, err := template.New(name).Parse(tmpl); err != nil {
			return fmt.Errorf("%w: output.%s: %v", ErrInvalidValue, name, err)
		}
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns a configuration that selects every built-in default.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{Embed: EmbedData},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := yamlutil.ReadFileStrict(configPath, &cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SearchPaths lists the locations tried for a config name, in order.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)
	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, AppDir, name+ext))
		}
	}
	return paths
}

// resolveConfigPath searches for a config file by name in standard locations:
// the current directory, then the user config directory.
func resolveConfigPath(name string) (string, error) {
	tried := SearchPaths(name)
	for _, p := range tried {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}
