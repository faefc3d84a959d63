package assets

import (
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strings"
)

//go:embed templates/*.tex
var builtin embed.FS

// EmbeddedLoader serves the templates compiled into the binary.
type EmbeddedLoader struct{}

func (EmbeddedLoader) LoadTemplate(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	content, err := builtin.ReadFile("templates/" + name + templateExt)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	return string(content), nil
}

// TemplateNames lists the built-in template names, sorted.
func TemplateNames() []string {
	names, _ := listTemplates(builtin, "templates")
	return names
}

// listTemplates returns the sorted base names of the .tex files in dir.
func listTemplates(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), templateExt); ok && !e.IsDir() && checkName(name) == nil {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

var _ Loader = EmbeddedLoader{}
