package assets

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultTemplateName is the template used when none is configured.
const DefaultTemplateName = "default"

// templateExt is the file extension of document templates.
const templateExt = ".tex"

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidAssetName = errors.New("invalid template name")
	ErrInvalidBasePath  = errors.New("invalid asset directory")
	ErrTemplateRead     = errors.New("failed to read template")
)

// Loader returns TeX document template sources by name.
type Loader interface {
	// LoadTemplate returns ErrTemplateNotFound when name is unknown, and
	// ErrInvalidAssetName when it could address a file outside the loader.
	LoadTemplate(name string) (string, error)
}

// checkName accepts bare names only: no separators, no dots.
func checkName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", ErrInvalidAssetName)
	case strings.ContainsAny(name, `/\.`):
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
