package texhtml

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"text/template"

	"github.com/alnah/go-texhtml/internal/pipeline"
)

// DefaultImageTemplate renders an embedded image. Height and Baseline are in
// em; Width and PixelHeight in pixels. Values are HTML-escaped beforehand.
const DefaultImageTemplate = `<img class="tex-image" id="{{.ID}}" ` +
	`{{if .Deferred}}data-tex-src{{else}}src{{end}}="{{.Payload}}" ` +
	`data-tex="{{.Markup}}" ` +
	`style="height:{{printf "%.3f" .Height}}em;vertical-align:-{{printf "%.3f" .Baseline}}em" alt="">`

// DefaultErrorTemplate renders an inline error annotation. The dot is the
// HTML-escaped message.
const DefaultErrorTemplate = `<span class="tex-error" data-tex-error style="color:#c00">[{{.}}]</span>`

// DefaultScriptTemplate renders the companion script that moves a deferred
// payload into src once the image exists.
const DefaultScriptTemplate = `<script data-tex-for="{{.ID}}">` +
	`(function(){var i=document.getElementById("{{.ID}}");` +
	`if(i){i.src=i.getAttribute("data-tex-src");i.removeAttribute("data-tex-src");}})();` +
	`</script>`

// ImageData is the data passed to the image and script templates.
type ImageData struct {
	ID          string
	Payload     string // data URI or file URL
	Markup      string // base64 of the delimited source
	Width       float64
	PixelHeight float64
	Height      float64
	Baseline    float64
	Deferred    bool
}

// fragmentTemplates holds the parsed output templates.
type fragmentTemplates struct {
	image  *template.Template
	errTpl *template.Template
	script *template.Template
}

// probeData is used to check that custom templates produce markup the
// converter can find again.
var probeData = ImageData{
	ID:       "tex-probe",
	Payload:  "data:image/png;base64,AA==",
	Markup:   "JHgk",
	Width:    1,
	Height:   1,
	Baseline: 0.1,
}

func parseFragmentTemplates(imageSrc, errorSrc, scriptSrc string, deferred bool) (*fragmentTemplates, error) {
	image, err := template.New("image").Option("missingkey=error").Parse(imageSrc)
	if err != nil {
		return nil, fmt.Errorf("%w: image: %v", ErrInvalidTemplate, err)
	}
	errTpl, err := template.New("error").Parse(errorSrc)
	if err != nil {
		return nil, fmt.Errorf("%w: error: %v", ErrInvalidTemplate, err)
	}
	script, err := template.New("script").Parse(scriptSrc)
	if err != nil {
		return nil, fmt.Errorf("%w: script: %v", ErrInvalidTemplate, err)
	}
	t := &fragmentTemplates{image: image, errTpl: errTpl, script: script}

	probe := probeData
	probe.Deferred = deferred
	img, err := t.renderImage(probe)
	if err != nil {
		return nil, fmt.Errorf("%w: image: %v", ErrInvalidTemplate, err)
	}
	found := pipeline.FindTexImages(img)
	if len(found) != 1 || found[0].Encoded != probe.Markup {
		return nil, fmt.Errorf("%w: image: output must be one <img> carrying %s", ErrInvalidTemplate, pipeline.AttrTex)
	}
	if deferred && found[0].ID != probe.ID {
		return nil, fmt.Errorf("%w: image: deferred images need id=\"{{.ID}}\"", ErrInvalidTemplate)
	}

	annotation, err := t.renderError("probe")
	if err != nil {
		return nil, fmt.Errorf("%w: error: %v", ErrInvalidTemplate, err)
	}
	if pipeline.StripErrorAnnotations(annotation) != "" {
		return nil, fmt.Errorf("%w: error: output must be one <span data-tex-error> element", ErrInvalidTemplate)
	}

	if deferred {
		s, err := t.renderScript(probe)
		if err != nil {
			return nil, fmt.Errorf("%w: script: %v", ErrInvalidTemplate, err)
		}
		scripts := pipeline.FindCompanionScripts(s)
		if len(scripts) != 1 || scripts[0].For != probe.ID {
			return nil, fmt.Errorf("%w: script: output must be one <script %s=\"{{.ID}}\">", ErrInvalidTemplate, pipeline.AttrTexFor)
		}
	}
	return t, nil
}

func (t *fragmentTemplates) renderImage(d ImageData) (string, error) {
	d.ID = html.EscapeString(d.ID)
	d.Payload = html.EscapeString(d.Payload)
	d.Markup = html.EscapeString(d.Markup)
	var buf bytes.Buffer
	if err := t.image.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (t *fragmentTemplates) renderScript(d ImageData) (string, error) {
	d.ID = html.EscapeString(d.ID)
	var buf bytes.Buffer
	if err := t.script.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// diagnosticHTML escapes msg and keeps its line structure.
func diagnosticHTML(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	return strings.ReplaceAll(html.EscapeString(msg), "\n", "<br>")
}

// renderError formats msg as an error annotation.
func (t *fragmentTemplates) renderError(msg string) (string, error) {
	var buf bytes.Buffer
	if err := t.errTpl.Execute(&buf, diagnosticHTML(msg)); err != nil {
		return "", err
	}
	return buf.String(), nil
}
