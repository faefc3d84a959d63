package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// toolchainFlags override the toolchain and output sections of the config.
type toolchainFlags struct {
	timeout   string
	format    string
	dpi       int
	assetPath string
	embed     string
	storeDir  string
	deferred  bool
}

// convertFlags holds all flags for the images and markup commands.
type convertFlags struct {
	common    commonFlags
	toolchain toolchainFlags
	output    string
	inPlace   bool
	workers   int
}

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	common         commonFlags
	toolchain      toolchainFlags
	addr           string
	requestTimeout string
	maxBody        int64
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show per-span details and timing")
}

// addToolchainFlags adds toolchain and embedding flags to a FlagSet.
func addToolchainFlags(fs *flag.FlagSet, f *toolchainFlags) {
	fs.StringVarP(&f.timeout, "timeout", "t", "", "timeout per toolchain invocation (e.g., 30s, 2m)")
	fs.StringVar(&f.format, "format", "", "image format: png or svg")
	fs.IntVar(&f.dpi, "dpi", 0, "raster resolution")
	fs.StringVar(&f.assetPath, "asset-path", "", "directory with custom document templates")
	fs.StringVar(&f.embed, "embed", "", "embed mode: data or store")
	fs.StringVar(&f.storeDir, "store-dir", "", "image store directory (implies --embed store)")
	fs.BoolVar(&f.deferred, "deferred", false, "emit companion scripts that set src after insertion")
}

// parseConvertFlags parses images/markup command flags and returns positional args.
func parseConvertFlags(name string, args []string, stderr io.Writer) (*convertFlags, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	f := &convertFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output directory")
	fs.BoolVarP(&f.inPlace, "in-place", "i", false, "overwrite input files")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	addCommonFlags(fs, &f.common)
	addToolchainFlags(fs, &f.toolchain)

	fs.Usage = func() { printConvertUsage(stderr, name) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseServeFlags parses serve command flags.
func parseServeFlags(args []string, stderr io.Writer) (*serveFlags, error) {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	f := &serveFlags{}

	fs.StringVar(&f.addr, "addr", ":8080", "listen address")
	fs.StringVar(&f.requestTimeout, "request-timeout", "2m", "timeout per HTTP request")
	fs.Int64Var(&f.maxBody, "max-body", 4<<20, "maximum request body in bytes")
	addCommonFlags(fs, &f.common)
	addToolchainFlags(fs, &f.toolchain)

	fs.Usage = func() { printServeUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, errUnexpectedArgs(fs.Args())
	}
	return f, nil
}
