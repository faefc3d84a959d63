package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: texhtml <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  images     Convert TeX markup in HTML files to images")
	fmt.Fprintln(w, "  markup     Convert generated images back to TeX markup")
	fmt.Fprintln(w, "  serve      Run the conversion HTTP API")
	fmt.Fprintln(w, "  doctor     Check the TeX toolchain and environment")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'texhtml help <command>' for details on a specific command.")
}

// printToolchainUsage prints the flags shared by every converting command.
func printToolchainUsage(w io.Writer) {
	fmt.Fprintln(w, "Toolchain:")
	fmt.Fprintln(w, "  -t, --timeout <d>         Timeout per toolchain invocation (e.g., 30s)")
	fmt.Fprintln(w, "      --format <s>          Image format: png, svg")
	fmt.Fprintln(w, "      --dpi <n>             Raster resolution")
	fmt.Fprintln(w, "      --asset-path <dir>    Directory with custom document templates")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Embedding:")
	fmt.Fprintln(w, "      --embed <s>           Embed mode: data, store")
	fmt.Fprintln(w, "      --store-dir <dir>     Image store directory (implies --embed store)")
	fmt.Fprintln(w, "      --deferred            Set image sources from companion scripts")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show per-span details and timing")
}

// printConvertUsage prints usage for the images and markup commands.
func printConvertUsage(w io.Writer, name string) {
	fmt.Fprintf(w, "Usage: texhtml %s <input> [flags]\n", name)
	fmt.Fprintln(w)
	if name == toMarkup.String() {
		fmt.Fprintln(w, "Replace generated images with the TeX markup they were rendered from.")
	} else {
		fmt.Fprintln(w, "Render TeX markup found in HTML files and embed the images.")
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    HTML file or directory")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory")
	fmt.Fprintln(w, "  -i, --in-place            Overwrite input files")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w)
	printToolchainUsage(w)
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: texhtml serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve conversions over HTTP.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Endpoints:")
	fmt.Fprintln(w, "  GET  /healthz             Liveness and version")
	fmt.Fprintln(w, "  POST /v1/images           {\"html\", \"selection\"} -> {\"html\"}")
	fmt.Fprintln(w, "  POST /v1/markup           {\"html\", \"selection\"} -> {\"html\"}")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server:")
	fmt.Fprintln(w, "      --addr <host:port>    Listen address (default :8080)")
	fmt.Fprintln(w, "      --request-timeout <d> Timeout per request (default 2m)")
	fmt.Fprintln(w, "      --max-body <n>        Maximum request body in bytes")
	fmt.Fprintln(w)
	printToolchainUsage(w)
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: texhtml doctor [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check that the configured toolchain programs are installed.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "      --json                Machine-readable output")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}
	if !isCommand(args[0]) {
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}

	switch args[0] {
	case "images", "markup":
		printConvertUsage(env.Stdout, args[0])
	case "serve":
		printServeUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: texhtml version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	default:
		fmt.Fprintln(env.Stdout, "Usage: texhtml help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	}
	return ExitSuccess
}
