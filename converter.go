package texhtml

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/alnah/go-texhtml/internal/assets"
	"github.com/alnah/go-texhtml/internal/pipeline"
	"github.com/alnah/go-texhtml/internal/toolchain"
)

// Converter converts TeX markup in HTML to embedded images and back.
// It holds no per-call state and is safe for concurrent use with distinct
// Documents.
type Converter struct {
	cfg       converterConfig
	logger    *slog.Logger
	rules     []TagRule
	renderer  Renderer
	store     ImageStore
	templates *fragmentTemplates
}

// NewConverter creates a Converter with the built-in tag rules and the TeX
// renderer. Returns error if an option is inconsistent or a template does
// not parse. External programs are not looked up until first use.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{
		cfg: converterConfig{
			timeout:       toolchain.DefaultTimeout,
			embed:         EmbedData,
			imageTemplate: DefaultImageTemplate,
			errorTemplate: DefaultErrorTemplate,
			scriptTmpl:    DefaultScriptTemplate,
			marker:        pipeline.DefaultReferenceMarker,
		},
		logger: slog.Default(),
		rules:  DefaultTagRules(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if len(c.rules) == 0 {
		return nil, ErrNoTagRules
	}
	c.rules = slices.Clone(c.rules)
	seen := make(map[string]bool, len(c.rules))
	for i, r := range c.rules {
		compiled, err := r.compile()
		if err != nil {
			return nil, err
		}
		if seen[compiled.Name] {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidTagRule, compiled.Name)
		}
		seen[compiled.Name] = true
		c.rules[i] = compiled
	}

	switch c.cfg.embed {
	case EmbedData:
	case EmbedStore:
		if c.store == nil {
			return nil, fmt.Errorf("%w: %s requires an image store", ErrInvalidEmbedMode, EmbedStore)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidEmbedMode, c.cfg.embed)
	}

	tmpl, err := parseFragmentTemplates(c.cfg.imageTemplate, c.cfg.errorTemplate, c.cfg.scriptTmpl, c.cfg.deferred)
	if err != nil {
		return nil, err
	}
	c.templates = tmpl

	if c.renderer == nil {
		r, err := c.newTexRenderer()
		if err != nil {
			return nil, err
		}
		c.renderer = r
	}

	return c, nil
}

func (c *Converter) newTexRenderer() (*texRenderer, error) {
	resolver, err := assets.NewResolver(c.cfg.assetPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
	}
	name := c.cfg.toolchain.Template
	if name == "" {
		name = assets.DefaultTemplateName
	}
	doc, err := resolver.LoadTemplate(name)
	if err != nil {
		return nil, fmt.Errorf("loading document template: %w", err)
	}

	tc := c.cfg.toolchain
	inv, err := toolchain.New(toolchain.Config{
		Document:     doc,
		ClassOptions: tc.ClassOptions,
		Preamble:     tc.Preamble,
		Intermediate: tc.Intermediate,
		Rasterize:    tc.Rasterize,
		Format:       tc.Format,
		DPI:          tc.DPI,
		Timeout:      c.cfg.timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("configuring toolchain: %w", err)
	}
	if c.cfg.runner != nil {
		inv.Runner = c.cfg.runner
	}

	return &texRenderer{
		invoker:   inv,
		workDir:   tc.WorkDir,
		templates: c.templates,
		embed:     c.cfg.embed,
		store:     c.store,
		deferred:  c.cfg.deferred,
		logger:    c.logger,
	}, nil
}

// Programs returns the external programs the built-in renderer runs, or nil
// when a custom renderer is configured.
func (c *Converter) Programs() []string {
	if r, ok := c.renderer.(*texRenderer); ok {
		return r.invoker.Programs()
	}
	return nil
}

// TagRules returns the compiled rules in evaluation order.
func (c *Converter) TagRules() []TagRule {
	out := make([]TagRule, len(c.rules))
	copy(out, c.rules)
	return out
}

// ConvertMarkupToImages renders every tag rule match in the document's
// editable region and returns the updated full text.
//
// Rules run in order; each sees only text no earlier rule replaced. Existing
// scripts, existing tex images and the trailing reference section are never
// matched. A span that fails to render keeps its source text followed by an
// error annotation; it never aborts the call. The call fails only when the
// region is not part of the document or ctx is done.
func (c *Converter) ConvertMarkupToImages(ctx context.Context, doc *Document) (string, error) {
	region, err := doc.region()
	if err != nil {
		return "", err
	}

	body, refs := pipeline.SplitReferences(region, c.cfg.marker)
	body = pipeline.StripErrorAnnotations(body)
	segs := pipeline.Freeze(body, pipeline.ScriptPattern, pipeline.TexImagePattern)

	var scripts []string
	total, failed := 0, 0
	for _, rule := range c.rules {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("converting markup: %w", err)
		}

		matches := segs.FindAll(rule.Pattern)
		if len(matches) == 0 {
			continue
		}

		occurrences := make(map[string]int, len(matches))
		replacements := make([]string, len(matches))
		for i, m := range matches {
			if err := ctx.Err(); err != nil {
				return "", fmt.Errorf("converting markup: %w", err)
			}
			occurrences[m.Text]++
			span := MatchSpan{
				Rule:         rule.Name,
				OriginalText: m.Text,
				MarkupCode:   m.Inner,
				Start:        m.Start,
				End:          m.End,
				Occurrence:   occurrences[m.Text],
			}

			out := c.render(ctx, rule, span)
			total++
			if !out.OK() {
				failed++
				replacements[i] = m.Text + c.errorAnnotation(out.Err)
				c.logger.Warn("span failed to render",
					slog.String("rule", rule.Name),
					slog.Int("occurrence", span.Occurrence),
					slog.Any("error", out.Err),
				)
				continue
			}
			replacements[i] = out.Fragment.HTML
			if out.Fragment.Script != "" {
				scripts = append(scripts, out.Fragment.Script)
			}
		}
		segs = segs.Replace(matches, replacements)
	}

	if total == 0 {
		return doc.FullText, nil
	}

	c.logger.Info("converted markup to images", slog.Int("spans", total), slog.Int("failed", failed))
	return doc.splice(region, segs.String()+strings.Join(scripts, "")+refs), nil
}

// render calls the renderer, turning a panic or an inconsistent Outcome
// into a failure for this span only.
func (c *Converter) render(ctx context.Context, rule TagRule, span MatchSpan) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Failed(span, fmt.Errorf("%w: panic: %v", ErrRenderFailed, r))
		}
	}()

	out = c.renderer.Render(ctx, rule, span)
	out.Span = span
	if out.Err == nil && out.Fragment == nil {
		out.Err = fmt.Errorf("%w: renderer returned no fragment", ErrRenderFailed)
	}
	if out.Err != nil {
		out.Fragment = nil
	}
	return out
}

// errorAnnotation renders err with the error template. A failing custom
// template falls back to the built-in one.
func (c *Converter) errorAnnotation(err error) string {
	msg := failureMessage(err)
	s, tplErr := c.templates.renderError(msg)
	if tplErr == nil {
		return s
	}
	c.logger.Warn("error template failed", slog.Any("error", tplErr))
	return strings.Replace(DefaultErrorTemplate, "{{.}}", diagnosticHTML(msg), 1)
}

// ConvertImagesToMarkup replaces every embedded tex image in the document's
// editable region with its HTML-escaped source markup and removes the
// companion scripts of converted images. Images whose payload cannot be
// decoded are left in place. Returns the updated full text.
func (c *Converter) ConvertImagesToMarkup(ctx context.Context, doc *Document) (string, error) {
	region, err := doc.region()
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("converting images: %w", err)
	}

	images := pipeline.FindTexImages(region)
	if len(images) == 0 {
		return doc.FullText, nil
	}

	decoded := make(map[string]string, len(images))
	converted := make(map[string]bool, len(images))
	edits := make([]pipeline.Edit, 0, len(images))
	for _, img := range images {
		src, ok := decoded[img.Text]
		if !ok {
			markup, err := decodeMarkup(img.Encoded)
			if err != nil {
				c.logger.Warn("image left unconverted", slog.String("id", img.ID), slog.Any("error", err))
				continue
			}
			src = pipeline.EscapeMarkup(markup)
			decoded[img.Text] = src
		}
		edits = append(edits, pipeline.Edit{Start: img.Start, End: img.End, Text: src})
		if img.ID != "" {
			converted[img.ID] = true
		}
	}
	if len(edits) == 0 {
		return doc.FullText, nil
	}

	for _, s := range pipeline.FindCompanionScripts(region) {
		if converted[s.For] {
			edits = append(edits, pipeline.Edit{Start: s.Start, End: s.End})
		}
	}

	updated, err := pipeline.ApplyEdits(region, edits)
	if err != nil {
		return "", fmt.Errorf("converting images: %w", err)
	}

	c.logger.Info("converted images to markup", slog.Int("images", len(images)))
	return doc.splice(region, updated), nil
}

// decodeMarkup decodes a data-tex payload.
func decodeMarkup(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: not UTF-8", ErrBadPayload)
	}
	return string(data), nil
}
