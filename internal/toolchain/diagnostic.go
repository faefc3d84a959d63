package toolchain

import (
	"os"
	"strings"
)

// maxDiagnosticLines caps how many lines of tool output end up in an error.
const maxDiagnosticLines = 6

// diagnose extracts a short message from a failed tool run. TeX reports
// errors on lines starting with "!", both on stdout and in the job log.
// Tools that don't follow that convention fall back to stderr, then stdout.
func diagnose(stdout, stderr, logPath string) string {
	if lines := texErrors(stdout); len(lines) > 0 {
		return strings.Join(lines, "\n")
	}
	if logPath != "" {
		if data, err := os.ReadFile(logPath); err == nil { // #nosec G304 -- job log inside the job directory
			if lines := texErrors(string(data)); len(lines) > 0 {
				return strings.Join(lines, "\n")
			}
		}
	}
	if s := lastLines(stderr); s != "" {
		return s
	}
	return lastLines(stdout)
}

func texErrors(output string) []string {
	var lines []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(line, "!") {
			lines = append(lines, line)
			if len(lines) == maxDiagnosticLines {
				break
			}
		}
	}
	return lines
}

func lastLines(output string) string {
	output = strings.TrimSpace(output)
	if output == "" {
		return ""
	}
	lines := strings.Split(output, "\n")
	if len(lines) > maxDiagnosticLines {
		lines = lines[len(lines)-maxDiagnosticLines:]
	}
	return strings.Join(lines, "\n")
}
