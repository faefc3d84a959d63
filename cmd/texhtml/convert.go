package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alnah/go-texhtml"
)

// Sentinel errors for CLI operations.
var (
	ErrUsage              = errors.New("invalid usage")
	ErrNoInput            = errors.New("no input specified")
	ErrNoOutput           = errors.New("no output specified")
	ErrReadInput          = errors.New("failed to read input file")
	ErrWriteOutput        = errors.New("failed to write output file")
	ErrOpenStore          = errors.New("failed to open image store")
	ErrMissingProgram     = errors.New("toolchain program not found")
	ErrInvalidExtension   = errors.New("file must have .html or .htm extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
)

// direction selects which conversion a command runs.
type direction int

const (
	toImages direction = iota
	toMarkup
)

func (d direction) String() string {
	if d == toMarkup {
		return "markup"
	}
	return "images"
}

// DocumentConverter is the conversion surface used by the CLI and server.
type DocumentConverter interface {
	ConvertMarkupToImages(ctx context.Context, doc *texhtml.Document) (string, error)
	ConvertImagesToMarkup(ctx context.Context, doc *texhtml.Document) (string, error)
}

// Compile-time interface implementation check.
var _ DocumentConverter = (*texhtml.Converter)(nil)

// apply runs the conversion d on doc.
func (d direction) apply(ctx context.Context, conv DocumentConverter, doc *texhtml.Document) (string, error) {
	if d == toMarkup {
		return conv.ConvertImagesToMarkup(ctx, doc)
	}
	return conv.ConvertMarkupToImages(ctx, doc)
}

func errUnexpectedArgs(args []string) error {
	return fmt.Errorf("%w: unexpected arguments: %s", ErrUsage, strings.Join(args, " "))
}

// runConvertCmd runs the images or markup command and returns an exit code.
func runConvertCmd(ctx context.Context, d direction, args []string, env *Environment) int {
	flags, positional, err := parseConvertFlags(d.String(), args, env.Stderr)
	if err != nil {
		return ExitUsage
	}
	if err := runConvert(ctx, d, positional, flags, env); err != nil {
		fmt.Fprintln(env.Stderr, err)
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// runConvert orchestrates a batch conversion.
func runConvert(ctx context.Context, d direction, positional []string, flags *convertFlags, env *Environment) error {
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}
	if len(positional) == 0 {
		return fmt.Errorf("%w: pass an HTML file or directory", ErrNoInput)
	}
	if len(positional) > 1 {
		return errUnexpectedArgs(positional[1:])
	}

	cfg, envCfg, err := loadConfig(flags.common.config, env)
	if err != nil {
		return err
	}
	if err := mergeToolchainFlags(&flags.toolchain, cfg); err != nil {
		return err
	}

	outputDir := flags.output
	if outputDir == "" {
		outputDir = envCfg.OutputDir
	}
	workers := flags.workers
	if workers == 0 {
		workers = envCfg.Workers
	}

	files, err := discoverFiles(positional[0], outputDir, flags.inPlace)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no HTML files found in %s", ErrNoInput, positional[0])
	}

	logger := newLogger(env.Stderr, flags.common.quiet, flags.common.verbose)
	conv, closeConv, err := buildConverter(cfg, logger, env)
	if err != nil {
		return err
	}
	defer func() { _ = closeConv() }()

	if d == toImages {
		if err := checkPrograms(conv.Programs(), env.LookPath); err != nil {
			return err
		}
	}

	n := texhtml.ResolveWorkers(workers)
	if flags.common.verbose {
		fmt.Fprintf(env.Stderr, "Workers: %d\n", n)
	}

	results := convertBatch(ctx, conv, d, files, n, env)
	failed := printResults(results, flags.common.quiet, flags.common.verbose, env)
	if failed > 0 {
		return fmt.Errorf("%d conversion(s) failed: %w", failed, firstError(results))
	}
	return nil
}
