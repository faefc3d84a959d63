package assets

import (
	"errors"
	"slices"
)

// Resolver tries its loaders in order. A later loader is consulted only
// when an earlier one reports ErrTemplateNotFound.
type Resolver struct {
	loaders []Loader
}

// NewResolver layers the templates under basePath, if set, over the
// built-in ones.
func NewResolver(basePath string) (*Resolver, error) {
	if basePath == "" {
		return &Resolver{loaders: []Loader{EmbeddedLoader{}}}, nil
	}
	dir, err := NewDirLoader(basePath)
	if err != nil {
		return nil, err
	}
	return &Resolver{loaders: []Loader{dir, EmbeddedLoader{}}}, nil
}

func (r *Resolver) LoadTemplate(name string) (string, error) {
	var err error
	for _, l := range r.loaders {
		var content string
		content, err = l.LoadTemplate(name)
		if !errors.Is(err, ErrTemplateNotFound) {
			return content, err
		}
	}
	return "", err
}

// AvailableTemplates lists the template names a resolver for basePath can
// load, sorted and without duplicates.
func AvailableTemplates(basePath string) []string {
	names := TemplateNames()
	if basePath != "" {
		if dir, err := NewDirLoader(basePath); err == nil {
			names = append(names, dir.Names()...)
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}

var _ Loader = (*Resolver)(nil)
