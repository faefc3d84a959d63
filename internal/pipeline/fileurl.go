package pipeline

import (
	"net/url"
	"path/filepath"
	"strings"
)

// FileURL converts an absolute path to a file:// URL.
// Handles both Unix and Windows paths correctly.
func FileURL(absPath string) string {
	p := filepath.ToSlash(absPath)
	// Windows drive paths need a leading slash: file:///C:/x
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{Scheme: "file", Path: p}
	return u.String()
}
