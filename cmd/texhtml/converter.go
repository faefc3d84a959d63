package main

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/alnah/go-texhtml"
	"github.com/alnah/go-texhtml/internal/assets"
	"github.com/alnah/go-texhtml/internal/config"
	"github.com/alnah/go-texhtml/internal/hints"
)

// loadConfig loads the named config, or the defaults when name is empty,
// then applies environment overrides.
func loadConfig(name string, env *Environment) (*config.Config, *envConfig, error) {
	envCfg := loadEnvConfig(env.Getenv)
	if name == "" {
		name = envCfg.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		var err error
		cfg, err = config.LoadConfig(name)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return nil, nil, fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(config.SearchPaths(name)))
			}
			return nil, nil, fmt.Errorf("loading config: %w", err)
		}
	}

	applyEnvConfig(envCfg, cfg)
	return cfg, envCfg, nil
}

// mergeToolchainFlags applies CLI flags to the config. CLI wins.
func mergeToolchainFlags(f *toolchainFlags, cfg *config.Config) error {
	if f.timeout != "" {
		cfg.Toolchain.Timeout = f.timeout
	}
	if f.format != "" {
		cfg.Toolchain.Format = f.format
	}
	if f.dpi != 0 {
		cfg.Toolchain.DPI = f.dpi
	}
	if f.assetPath != "" {
		cfg.Assets.BasePath = f.assetPath
	}
	if f.storeDir != "" {
		cfg.Output.StoreDir = f.storeDir
		cfg.Output.Embed = config.EmbedStore
	}
	if f.embed != "" {
		cfg.Output.Embed = f.embed
	}
	if f.deferred {
		cfg.Output.Deferred = true
	}

	// Flags bypass LoadConfig, so validate the merged result.
	return cfg.Validate()
}

// buildConverter creates a converter from the merged config. The returned
// close function releases the image store, if any.
func buildConverter(cfg *config.Config, logger *slog.Logger, env *Environment) (*texhtml.Converter, func() error, error) {
	opts := []texhtml.Option{
		texhtml.WithLogger(logger),
		texhtml.WithCommandRunner(env.runner()),
		texhtml.WithDeferredSource(cfg.Output.Deferred),
	}

	if len(cfg.Tags) > 0 {
		rules, err := tagRules(cfg.Tags)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, texhtml.WithTagRules(rules...))
	}

	tc := cfg.Toolchain
	opts = append(opts, texhtml.WithToolchain(texhtml.Toolchain{
		Template:     tc.Template,
		ClassOptions: tc.ClassOptions,
		Preamble:     tc.Preamble,
		Intermediate: texhtml.Command{Name: tc.Intermediate.Name, Args: tc.Intermediate.Args},
		Rasterize:    texhtml.Command{Name: tc.Rasterize.Name, Args: tc.Rasterize.Args},
		Format:       tc.Format,
		DPI:          tc.DPI,
		WorkDir:      tc.WorkDir,
	}))
	if d := tc.TimeoutDuration(); d > 0 {
		opts = append(opts, texhtml.WithTimeout(d))
	}
	if cfg.Assets.BasePath != "" {
		opts = append(opts, texhtml.WithAssetPath(cfg.Assets.BasePath))
	}
	if cfg.Output.ImageTemplate != "" {
		opts = append(opts, texhtml.WithImageTemplate(cfg.Output.ImageTemplate))
	}
	if cfg.Output.ErrorTemplate != "" {
		opts = append(opts, texhtml.WithErrorTemplate(cfg.Output.ErrorTemplate))
	}

	switch {
	case cfg.References.Disabled:
		opts = append(opts, texhtml.WithReferenceMarker(nil))
	case cfg.References.Marker != "":
		re, err := regexp.Compile(cfg.References.Marker)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: references.marker: %v", config.ErrInvalidValue, err)
		}
		opts = append(opts, texhtml.WithReferenceMarker(re))
	}

	closeFn := func() error { return nil }
	if cfg.Output.Embed == config.EmbedStore {
		store, err := texhtml.OpenImageStore(cfg.Output.StoreDir)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v%s", ErrOpenStore, err, hints.ForStoreDirectory())
		}
		opts = append(opts, texhtml.WithImageStore(store))
		closeFn = store.Close
	}

	conv, err := texhtml.NewConverter(opts...)
	if err != nil {
		_ = closeFn()
		if errors.Is(err, assets.ErrTemplateNotFound) {
			return nil, nil, fmt.Errorf("%w%s", err, hints.ForTemplateNotFound(assets.AvailableTemplates(cfg.Assets.BasePath)))
		}
		return nil, nil, err
	}
	return conv, closeFn, nil
}

// tagRules converts configured tags into rules. Tags without begin and
// end are wrapped in inline math.
func tagRules(tags []config.TagConfig) ([]texhtml.TagRule, error) {
	rules := make([]texhtml.TagRule, 0, len(tags))
	for _, t := range tags {
		begin, end := t.Begin, t.End
		if begin == "" && end == "" {
			begin, end = "$", "$"
		}

		if t.Pattern == "" {
			rule, err := texhtml.NewTagRule(t.Name, t.Open, t.Close, begin, end)
			if err != nil {
				return nil, err
			}
			rules = append(rules, rule)
			continue
		}

		re, err := regexp.Compile(t.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", texhtml.ErrInvalidTagRule, t.Name, err)
		}
		rules = append(rules, texhtml.TagRule{
			Name:    t.Name,
			Pattern: re,
			Open:    t.Open,
			Close:   t.Close,
			Begin:   begin,
			End:     end,
		})
	}
	return rules, nil
}

// checkPrograms verifies every toolchain program is on PATH.
func checkPrograms(programs []string, lookPath func(string) (string, error)) error {
	for _, p := range programs {
		if _, err := lookPath(p); err != nil {
			return fmt.Errorf("%w: %s%s", ErrMissingProgram, p, hints.ForMissingProgram(p))
		}
	}
	return nil
}
