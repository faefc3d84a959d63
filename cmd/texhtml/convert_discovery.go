package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/alnah/go-texhtml"
	"github.com/alnah/go-texhtml/internal/fileutil"
)

// FileToConvert represents a single file to process.
type FileToConvert struct {
	InputPath  string
	OutputPath string
}

// discoverFiles finds the HTML files to convert. Without inPlace, outputs
// go under outputDir, mirroring the input tree.
func discoverFiles(inputPath, outputDir string, inPlace bool) ([]FileToConvert, error) {
	if !inPlace && outputDir == "" {
		return nil, fmt.Errorf("%w: use -o <dir> or --in-place", ErrNoOutput)
	}

	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if !fileutil.IsHTMLFile(inputPath) {
			return nil, fmt.Errorf("%w: got %q", ErrInvalidExtension, filepath.Ext(inputPath))
		}
		return []FileToConvert{{
			InputPath:  inputPath,
			OutputPath: resolveOutputPath(inputPath, outputDir, "", inPlace),
		}}, nil
	}

	var files []FileToConvert
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() {
			if path != inputPath && samePath(path, outputDir) {
				return filepath.SkipDir
			}
			return nil
		}
		if !fileutil.IsHTMLFile(path) {
			return nil
		}
		files = append(files, FileToConvert{
			InputPath:  path,
			OutputPath: resolveOutputPath(path, outputDir, inputPath, inPlace),
		})
		return nil
	})
	return files, err
}

// resolveOutputPath determines where a converted file is written.
func resolveOutputPath(inputPath, outputDir, baseInputDir string, inPlace bool) string {
	if inPlace {
		return inputPath
	}
	if baseInputDir != "" {
		if rel, err := filepath.Rel(baseInputDir, inputPath); err == nil {
			return filepath.Join(outputDir, rel)
		}
	}
	return filepath.Join(outputDir, filepath.Base(inputPath))
}

// samePath reports whether two paths name the same directory.
func samePath(a, b string) bool {
	if b == "" {
		return false
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > texhtml.MaxWorkers {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, texhtml.MaxWorkers)
	}
	return nil
}
