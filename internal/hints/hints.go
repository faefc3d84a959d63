// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-texhtml/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// debianPackages maps toolchain programs to the Debian package providing them.
var debianPackages = map[string]string{
	"latex":    "texlive-latex-base",
	"pdflatex": "texlive-latex-base",
	"dvipng":   "dvipng",
	"dvisvgm":  "texlive-binaries",
}

// ForMissingProgram returns hints for a toolchain program that is not on PATH.
// In CI or containers it names the package to install.
func ForMissingProgram(name string) string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	if pkg, ok := debianPackages[name]; ok && (inCI || IsInContainer()) {
		hints = append(hints, "apt-get install "+pkg)
	} else {
		hints = append(hints, "install a TeX distribution providing "+name+" (TeX Live, MiKTeX)")
	}
	hints = append(hints, "run 'texhtml doctor' to check the toolchain")

	return formatHints(hints)
}

// ForTimeout returns a hint about increasing the toolchain timeout.
func ForTimeout() string {
	return format("complex formulas or first-run font generation may need --timeout 2m")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in the user config directory.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, "go-texhtml") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForTemplateNotFound returns hints for document template not found errors.
func ForTemplateNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// ForStoreDirectory returns hints for image store open errors.
func ForStoreDirectory() string {
	return format("output.storeDir must be a writable directory; use --embed data to inline images instead")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
