// Package fileutil provides file and path utility functions.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors for file utility operations.
var (
	ErrExtensionEmpty         = errors.New("extension cannot be empty")
	ErrExtensionPathTraversal = errors.New("extension contains path separator or null byte")
)

// MakeJobDir creates a fresh working directory for one rendering attempt.
// Returns the directory path and a cleanup function that removes it.
// An empty parent uses the system temp directory.
func MakeJobDir(parent string) (dir string, cleanup func(), err error) {
	if parent != "" {
		if err := os.MkdirAll(parent, 0o750); err != nil {
			return "", nil, fmt.Errorf("creating work directory: %w", err)
		}
	}

	dir, err = os.MkdirTemp(parent, "texhtml-*")
	if err != nil {
		return "", nil, fmt.Errorf("creating job directory: %w", err)
	}

	return dir, func() { _ = os.RemoveAll(dir) }, nil
}

// ValidateExtension checks that the extension is safe for use in file names.
func ValidateExtension(extension string) error {
	if extension == "" {
		return ErrExtensionEmpty
	}
	if strings.ContainsAny(extension, "/\\\x00") {
		return ErrExtensionPathTraversal
	}
	return nil
}

// SiblingPath returns path with its extension replaced by extension.
// The extension is given without a leading dot.
//
// Examples:
//   - ("/tmp/job/job.png", "dims") -> "/tmp/job/job.dims"
//   - ("job", "dvi") -> "job.dvi"
func SiblingPath(path, extension string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "." + extension
}

// CopyFile copies src to dst, replacing dst if it exists. The copy is
// written to a temporary file next to dst and renamed into place, so readers
// and concurrent writers of dst never see a partial file.
func CopyFile(src, dst string) (err error) {
	in, err := os.Open(src) // #nosec G304 -- path produced by the toolchain
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+"-*")
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("setting mode on %s: %w", dst, err)
	}
	if err = os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("replacing %s: %w", dst, err)
	}
	return nil
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// IsFilePath returns true if the string looks like a file path rather than a name.
// A string containing path separators (/, \) is treated as a path.
//
// Examples:
//   - "default" -> false (name)
//   - "./texhtml.yaml" -> true (relative path)
//   - "/etc/texhtml/site.yaml" -> true (absolute)
//   - "C:\cfg\site.yaml" -> true (Windows)
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// IsHTMLFile reports whether the path has an .html or .htm extension.
func IsHTMLFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	}
	return false
}
