package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-texhtml"
)

const (
	dirPermissions  = 0o750
	filePermissions = 0o644 // converted pages stay world-readable
)

// ConversionResult is the outcome of converting one file.
type ConversionResult struct {
	InputPath  string
	OutputPath string
	Err        error
	Duration   time.Duration
}

// convertBatch converts files on at most n goroutines sharing conv.
// results[i] always belongs to files[i]. Files not started before ctx is
// done report ctx.Err().
func convertBatch(ctx context.Context, conv DocumentConverter, d direction, files []FileToConvert, n int, env *Environment) []ConversionResult {
	if len(files) == 0 {
		return nil
	}

	results := make([]ConversionResult, len(files))
	var g errgroup.Group
	g.SetLimit(max(1, n))
	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = ConversionResult{InputPath: f.InputPath, OutputPath: f.OutputPath, Err: err}
				return nil
			}
			results[i] = convertFile(ctx, conv, d, f, env)
			return nil
		})
	}
	_ = g.Wait() // workers record failures in results
	return results
}

// convertFile reads, converts and writes a single document.
func convertFile(ctx context.Context, conv DocumentConverter, d direction, f FileToConvert, env *Environment) ConversionResult {
	start := env.Now()
	err := func() error {
		content, err := os.ReadFile(f.InputPath) // #nosec G304 -- discovered path
		if err != nil {
			return fmt.Errorf("%w: %w", ErrReadInput, err)
		}

		out, err := d.apply(ctx, conv, texhtml.NewDocument(string(content), ""))
		if err != nil {
			return err
		}

		if err := os.MkdirAll(filepath.Dir(f.OutputPath), dirPermissions); err != nil {
			return fmt.Errorf("%w: creating output directory: %w", ErrWriteOutput, err)
		}
		// #nosec G306 -- output is a public HTML page
		if err := os.WriteFile(f.OutputPath, []byte(out), filePermissions); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteOutput, err)
		}
		return nil
	}()

	return ConversionResult{
		InputPath:  f.InputPath,
		OutputPath: f.OutputPath,
		Err:        err,
		Duration:   env.Now().Sub(start),
	}
}

// countResults returns the number of successful and failed conversions.
func countResults(results []ConversionResult) (ok, failed int) {
	for _, r := range results {
		if r.Err != nil {
			failed++
		} else {
			ok++
		}
	}
	return ok, failed
}

// firstError returns the first failure, used to pick the exit code.
func firstError(results []ConversionResult) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

// printResults reports each file and a summary, returning the failure count.
// Failures always go to stderr; quiet silences everything else.
func printResults(results []ConversionResult, quiet, verbose bool, env *Environment) int {
	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
		case quiet:
		case verbose:
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.InputPath, r.OutputPath, r.Duration.Round(time.Millisecond))
		default:
			fmt.Fprintf(env.Stdout, "Wrote %s\n", r.OutputPath)
		}
	}

	ok, failed := countResults(results)
	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", ok, failed)
	}
	return failed
}
