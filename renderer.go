package texhtml

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"

	"github.com/alnah/go-texhtml/internal/fileutil"
	"github.com/alnah/go-texhtml/internal/imagesize"
	"github.com/alnah/go-texhtml/internal/metrics"
	"github.com/alnah/go-texhtml/internal/pipeline"
	"github.com/alnah/go-texhtml/internal/toolchain"
)

// Renderer turns one matched span into an embeddable fragment.
// Implementations report failures through Outcome.Err and must not panic;
// the converter recovers panics regardless.
type Renderer interface {
	Render(ctx context.Context, rule TagRule, span MatchSpan) Outcome
}

// texRenderer renders spans with the external TeX toolchain.
type texRenderer struct {
	invoker   *toolchain.Invoker
	workDir   string
	templates *fragmentTemplates
	embed     EmbedMode
	store     ImageStore
	deferred  bool
	logger    *slog.Logger
}

// Render implements Renderer. Every attempt gets its own job directory,
// removed before returning.
func (r *texRenderer) Render(ctx context.Context, rule TagRule, span MatchSpan) Outcome {
	plain := pipeline.PlainText(span.MarkupCode)

	dir, cleanup, err := fileutil.MakeJobDir(r.workDir)
	if err != nil {
		return Failed(span, err)
	}
	defer cleanup()

	dvi, err := r.invoker.Intermediate(ctx, dir, rule.Begin, rule.End, plain)
	if err != nil {
		return Failed(span, err)
	}
	img, err := r.invoker.Rasterize(ctx, dvi)
	if err != nil {
		return Failed(span, err)
	}
	if img == "" || isEmptyFile(img) {
		return Failed(span, ErrEmptyOutput)
	}

	m, err := metrics.Read(img)
	if err != nil {
		return Failed(span, err)
	}
	size, err := imagesize.Read(img)
	if err != nil {
		return Failed(span, err)
	}

	payload, err := r.payload(ctx, rule, plain, img)
	if err != nil {
		return Failed(span, err)
	}

	data := ImageData{
		ID:          "tex-" + uuid.NewString(),
		Payload:     payload,
		Markup:      base64.StdEncoding.EncodeToString([]byte(sourceText(rule, span))),
		Width:       size.Width,
		PixelHeight: size.Height,
		Height:      m.Height,
		Baseline:    m.Depth,
		Deferred:    r.deferred,
	}
	frag := &Fragment{ID: data.ID}
	if frag.HTML, err = r.templates.renderImage(data); err != nil {
		return Failed(span, fmt.Errorf("%w: %v", ErrInvalidTemplate, err))
	}
	if r.deferred {
		if frag.Script, err = r.templates.renderScript(data); err != nil {
			return Failed(span, fmt.Errorf("%w: %v", ErrInvalidTemplate, err))
		}
	}

	r.logger.Debug("rendered span",
		slog.String("rule", rule.Name),
		slog.Int("occurrence", span.Occurrence),
		slog.Float64("width", size.Width),
		slog.Float64("height", size.Height),
	)
	return Succeeded(span, frag)
}

// payload returns the image reference for the fragment: a data URI, or a
// file URL into the image store after copying the image there.
func (r *texRenderer) payload(ctx context.Context, rule TagRule, plain, img string) (string, error) {
	ext := strings.TrimPrefix(filepath.Ext(img), ".")

	if r.embed != EmbedStore {
		data, err := os.ReadFile(img) // #nosec G304 -- toolchain output in the job directory
		if err != nil {
			return "", err
		}
		return "data:" + mimeType(ext) + ";base64," + base64.StdEncoding.EncodeToString(data), nil
	}

	hash := contentHash(r.invoker.Fingerprint(), rule, plain)
	path, err := r.store.ResolveOrRegister(ctx, hash, ext)
	if err != nil {
		return "", fmt.Errorf("image store: %w", err)
	}
	if err := fileutil.CopyFile(img, path); err != nil {
		return "", err
	}
	return pipeline.FileURL(path), nil
}

// contentHash keys the image store: SHA3-224 over the rendering profile and
// the decoded markup.
func contentHash(fingerprint string, rule TagRule, plain string) string {
	h := sha3.New224()
	for _, part := range []string{fingerprint, rule.Begin, rule.End, plain} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// sourceText is the text restored by ConvertImagesToMarkup: the decoded
// markup between the rule's delimiters, or the decoded full match for
// pattern-only rules.
func sourceText(rule TagRule, span MatchSpan) string {
	if rule.Open == "" && rule.Close == "" {
		return pipeline.PlainText(span.OriginalText)
	}
	return rule.Open + pipeline.PlainText(span.MarkupCode) + rule.Close
}

func mimeType(ext string) string {
	switch ext {
	case "svg":
		return "image/svg+xml"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif", "bmp", "tiff", "webp":
		return "image/" + ext
	default:
		return "image/png"
	}
}

func isEmptyFile(path string) bool {
	info, err := os.Stat(path)
	return err != nil || info.Size() == 0
}

// failureMessage is the text shown in an error annotation.
func failureMessage(err error) string {
	var stageErr *toolchain.StageError
	if errors.As(err, &stageErr) && stageErr.Diagnostic != "" {
		return stageErr.Diagnostic
	}
	return err.Error()
}
