// Package toolchain drives the external TeX programs that turn a markup
// string into an image: an intermediate stage (TeX to DVI) and a rasterize
// stage (DVI to PNG or SVG).
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/alnah/go-texhtml/internal/fileutil"
)

// Output formats.
const (
	FormatPNG = "png"
	FormatSVG = "svg"
)

// Defaults applied by New when fields are zero.
const (
	DefaultDPI     = 300
	DefaultTimeout = 30 * time.Second
	DefaultFormat  = FormatPNG
)

// jobName is the base name of every file produced inside a job directory.
const jobName = "job"

// Command is an external program with its arguments. Arguments may contain
// the placeholders {input}, {output}, {jobname}, {dpi} and {dir}.
type Command struct {
	Name string
	Args []string
}

// DefaultIntermediateCommand runs latex in batch mode, stopping at the first error.
func DefaultIntermediateCommand() Command {
	return Command{
		Name: "latex",
		Args: []string{"-interaction=nonstopmode", "-halt-on-error", "{input}"},
	}
}

// DefaultRasterizeCommand returns the rasterizer for format.
func DefaultRasterizeCommand(format string) Command {
	if format == FormatSVG {
		return Command{
			Name: "dvisvgm",
			Args: []string{"--no-fonts", "--exact-bbox", "--output={output}", "{input}"},
		}
	}
	return Command{
		Name: "dvipng",
		Args: []string{"-q", "-D", "{dpi}", "-T", "tight", "-bg", "Transparent", "-o", "{output}", "{input}"},
	}
}

// Config configures an Invoker. Zero values select defaults.
type Config struct {
	Document     string // document template source, << >> delimiters
	ClassOptions string
	Preamble     []string
	Intermediate Command
	Rasterize    Command
	Format       string
	DPI          int
	Timeout      time.Duration
}

// Invoker runs the two toolchain stages inside a caller-provided job directory.
type Invoker struct {
	Runner CommandRunner

	doc          *template.Template
	docSource    string
	classOptions string
	preamble     []string
	intermediate Command
	rasterize    Command
	format       string
	dpi          int
	timeout      time.Duration
}

// documentData is the data passed to the document template.
type documentData struct {
	ClassOptions string
	Preamble     []string
	Begin        string
	Markup       string
	End          string
}

// New creates an Invoker backed by a real command runner.
func New(cfg Config) (*Invoker, error) {
	if cfg.Document == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidTemplate)
	}
	doc, err := template.New("document").Delims("<<", ">>").Option("missingkey=error").Parse(cfg.Document)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}

	format := cfg.Format
	if format == "" {
		format = DefaultFormat
	}
	if format != FormatPNG && format != FormatSVG {
		return nil, fmt.Errorf("%w: %q (expected %s or %s)", ErrInvalidFormat, format, FormatPNG, FormatSVG)
	}

	inv := &Invoker{
		Runner:       &ExecRunner{},
		doc:          doc,
		docSource:    cfg.Document,
		classOptions: cfg.ClassOptions,
		preamble:     cfg.Preamble,
		intermediate: cfg.Intermediate,
		rasterize:    cfg.Rasterize,
		format:       format,
		dpi:          cfg.DPI,
		timeout:      cfg.Timeout,
	}
	if inv.intermediate.Name == "" {
		inv.intermediate = DefaultIntermediateCommand()
	}
	if inv.rasterize.Name == "" {
		inv.rasterize = DefaultRasterizeCommand(format)
	}
	if inv.dpi <= 0 {
		inv.dpi = DefaultDPI
	}
	if inv.timeout <= 0 {
		inv.timeout = DefaultTimeout
	}
	for _, c := range []Command{inv.intermediate, inv.rasterize} {
		if strings.TrimSpace(c.Name) == "" || strings.ContainsAny(c.Name, "\x00\n") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCommand, c.Name)
		}
	}
	return inv, nil
}

// Format returns the output format, "png" or "svg".
func (i *Invoker) Format() string { return i.format }

// Programs returns the names of the external programs this invoker runs.
func (i *Invoker) Programs() []string {
	return []string{i.intermediate.Name, i.rasterize.Name}
}

// Fingerprint identifies everything besides the markup that changes the
// rendered image. Two invokers with equal fingerprints render identically.
func (i *Invoker) Fingerprint() string {
	var b strings.Builder
	b.WriteString(i.docSource)
	for _, part := range append([]string{i.classOptions, i.format, strconv.Itoa(i.dpi)}, i.preamble...) {
		b.WriteByte(0)
		b.WriteString(part)
	}
	for _, c := range []Command{i.intermediate, i.rasterize} {
		b.WriteByte(0)
		b.WriteString(c.Name)
		b.WriteByte(0)
		b.WriteString(strings.Join(c.Args, " "))
	}
	return b.String()
}

// Intermediate writes the wrapped markup as a TeX document into dir and
// compiles it. Returns the path of the produced DVI file.
func (i *Invoker) Intermediate(ctx context.Context, dir, begin, end, markup string) (string, error) {
	var buf bytes.Buffer
	if err := i.doc.Execute(&buf, documentData{
		ClassOptions: i.classOptions,
		Preamble:     i.preamble,
		Begin:        begin,
		Markup:       markup,
		End:          end,
	}); err != nil {
		return "", &StageError{Stage: StageIntermediate, Diagnostic: "executing document template", Err: err}
	}

	input := filepath.Join(dir, jobName+".tex")
	if err := os.WriteFile(input, buf.Bytes(), 0o600); err != nil {
		return "", &StageError{Stage: StageIntermediate, Diagnostic: "writing document", Err: err}
	}

	output := filepath.Join(dir, jobName+".dvi")
	if err := i.run(ctx, StageIntermediate, dir, i.intermediate, input, output); err != nil {
		return "", err
	}
	return output, nil
}

// Rasterize converts a DVI file into the configured image format next to it.
// Returns the path of the produced image.
func (i *Invoker) Rasterize(ctx context.Context, dviPath string) (string, error) {
	dir := filepath.Dir(dviPath)
	output := fileutil.SiblingPath(dviPath, i.format)
	if err := i.run(ctx, StageRasterize, dir, i.rasterize, dviPath, output); err != nil {
		return "", err
	}
	if i.format == FormatSVG {
		if err := pointsToPixels(output); err != nil {
			return "", &StageError{Stage: StageRasterize, Diagnostic: "normalizing svg size", Err: err}
		}
	}
	return output, nil
}

func (i *Invoker) run(ctx context.Context, stage, dir string, c Command, input, output string) error {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	args := i.expand(c.Args, dir, input, output)
	stdout, stderr, err := i.Runner.Run(ctx, dir, c.Name, args...)
	if err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
			return &StageError{
				Stage:      stage,
				Diagnostic: fmt.Sprintf("%s timed out after %s", c.Name, i.timeout),
				Err:        ctxErr,
			}
		}
		diag := diagnose(stdout, stderr, filepath.Join(dir, jobName+".log"))
		if diag == "" {
			diag = fmt.Sprintf("%s: %v", c.Name, err)
		}
		return &StageError{Stage: stage, Diagnostic: diag, Err: err}
	}

	if !fileutil.FileExists(output) {
		return &StageError{
			Stage:      stage,
			Diagnostic: fmt.Sprintf("%s produced no %s", c.Name, filepath.Base(output)),
		}
	}
	return nil
}

func (i *Invoker) expand(args []string, dir, input, output string) []string {
	r := strings.NewReplacer(
		"{input}", filepath.Base(input),
		"{output}", filepath.Base(output),
		"{jobname}", jobName,
		"{dpi}", strconv.Itoa(i.dpi),
		"{dir}", dir,
	)
	out := make([]string, len(args))
	for n, a := range args {
		out[n] = r.Replace(a)
	}
	return out
}

// svgRootSize matches pt-valued width and height attributes as written by dvisvgm.
var svgRootSize = regexp.MustCompile(`\b(width|height)=(['"])([0-9.]+)pt(['"])`)

// pxPerPt converts TeX points to CSS pixels.
const pxPerPt = 96.0 / 72.27

// pointsToPixels rewrites the root element's pt dimensions to px in place.
func pointsToPixels(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- output inside the job directory
	if err != nil {
		return err
	}

	start := bytes.Index(data, []byte("<svg"))
	if start < 0 {
		return nil
	}
	rel := bytes.IndexByte(data[start:], '>')
	if rel < 0 {
		return nil
	}
	end := start + rel

	root := svgRootSize.ReplaceAllFunc(data[start:end], func(m []byte) []byte {
		sub := svgRootSize.FindSubmatch(m)
		v, err := strconv.ParseFloat(string(sub[3]), 64)
		if err != nil {
			return m
		}
		px := strconv.FormatFloat(v*pxPerPt, 'f', 3, 64)
		return []byte(fmt.Sprintf("%s=%s%spx%s", sub[1], sub[2], px, sub[4]))
	})

	var out bytes.Buffer
	out.Write(data[:start])
	out.Write(root)
	out.Write(data[end:])
	return os.WriteFile(path, out.Bytes(), 0o600)
}
