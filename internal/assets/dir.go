package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DirLoader reads templates from {root}/templates/{name}.tex.
type DirLoader struct {
	root string // absolute, symlinks resolved
}

// NewDirLoader checks that root is an existing directory.
func NewDirLoader(root string) (*DirLoader, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidBasePath)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s does not exist", ErrInvalidBasePath, abs)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	case !info.IsDir():
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidBasePath, abs)
	}
	return &DirLoader{root: abs}, nil
}

func (d *DirLoader) LoadTemplate(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}

	path := filepath.Join(d.root, "templates", name+templateExt)
	if !d.contains(path) {
		return "", fmt.Errorf("%w: %q resolves outside %s", ErrInvalidAssetName, name, d.root)
	}

	content, err := os.ReadFile(path) // #nosec G304 -- name checked and path contained
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateRead, err)
	}
	return string(content), nil
}

// Names lists the templates present in the directory.
func (d *DirLoader) Names() []string {
	names, _ := listTemplates(os.DirFS(d.root), "templates")
	return names
}

// contains reports whether path, after following symlinks, stays under root.
// A missing file is judged by its unresolved path.
func (d *DirLoader) contains(path string) bool {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	rel, err := filepath.Rel(d.root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

var _ Loader = (*DirLoader)(nil)
