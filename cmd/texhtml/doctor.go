package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-texhtml"
	"github.com/alnah/go-texhtml/internal/config"
	"github.com/alnah/go-texhtml/internal/hints"
	"github.com/alnah/go-texhtml/internal/toolchain"
)

// Doctor statuses.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// versionTimeout bounds each "<program> --version" probe.
const versionTimeout = 5 * time.Second

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string        `json:"status"`
	Programs []programInfo `json:"programs"`
	Env      envInfo       `json:"environment"`
	System   systemInfo    `json:"system"`
	Warnings []string      `json:"warnings,omitempty"`
	Errors   []string      `json:"errors,omitempty"`
}

// programInfo holds detection results for one toolchain program.
type programInfo struct {
	Stage   string `json:"stage"`
	Name    string `json:"name"`
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
}

// systemInfo holds system check results.
type systemInfo struct {
	WorkDir         string `json:"work_dir"`
	WorkDirWritable bool   `json:"work_dir_writable"`
	StoreDir        string `json:"store_dir,omitempty"`
	StoreReady      bool   `json:"store_ready,omitempty"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(ctx context.Context, args []string, env *Environment) int {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	var configName string
	var jsonOutput bool
	fs.StringVarP(&configName, "config", "c", "", "config file name or path")
	fs.BoolVar(&jsonOutput, "json", false, "machine-readable output")
	fs.Usage = func() { printDoctorUsage(env.Stderr) }
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	cfg, _, err := loadConfig(configName, env)
	if err != nil {
		fmt.Fprintln(env.Stderr, err)
		return exitCodeFor(err)
	}

	result := runDoctor(ctx, cfg, env)

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(ctx context.Context, cfg *config.Config, env *Environment) *doctorResult {
	result := &doctorResult{
		Status: statusReady,
		Env: envInfo{
			OS:   runtime.GOOS,
			Arch: runtime.GOARCH,
		},
	}

	for _, p := range configuredPrograms(cfg.Toolchain) {
		result.Programs = append(result.Programs, checkProgram(ctx, p, result, env))
	}
	checkEnvironment(result, env.Getenv)
	checkSystem(cfg, result)

	if len(result.Errors) > 0 {
		result.Status = statusErrors
	} else if len(result.Warnings) > 0 {
		result.Status = statusWarnings
	}
	return result
}

// configuredPrograms lists the programs the configured toolchain runs.
func configuredPrograms(tc config.ToolchainConfig) []programInfo {
	intermediate := tc.Intermediate.Name
	if intermediate == "" {
		intermediate = toolchain.DefaultIntermediateCommand().Name
	}
	rasterize := tc.Rasterize.Name
	if rasterize == "" {
		rasterize = toolchain.DefaultRasterizeCommand(tc.Format).Name
	}
	return []programInfo{
		{Stage: toolchain.StageIntermediate, Name: intermediate},
		{Stage: toolchain.StageRasterize, Name: rasterize},
	}
}

// checkProgram locates a program on PATH and asks it for its version.
func checkProgram(ctx context.Context, p programInfo, result *doctorResult, env *Environment) programInfo {
	path, err := env.LookPath(p.Name)
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("%s not found on PATH%s", p.Name, hints.ForMissingProgram(p.Name)))
		return p
	}
	p.Found = true
	p.Path = path

	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	stdout, _, err := env.runner().Run(ctx, "", path, "--version")
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get %s version: %v", p.Name, err))
		return p
	}
	if line, _, _ := strings.Cut(strings.TrimSpace(stdout), "\n"); line != "" {
		p.Version = line
	}
	return p
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult, getenv func(string) string) {
	result.Env.Container, result.Env.ContainerHint = isContainer(getenv)

	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if result.Env.Container || result.Env.CI {
		result.Warnings = append(result.Warnings,
			"Container/CI detected: the first render builds TeX font caches"+hints.ForTimeout())
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(getenv func(string) string) (bool, string) {
	if getenv("TEXHTML_CONTAINER") == "1" {
		return true, "TEXHTML_CONTAINER=1"
	}
	if hints.IsInContainer() {
		return true, "/.dockerenv"
	}
	if v := getenv("container"); v != "" {
		return true, "container=" + v
	}
	if getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the job and store directories are usable.
func checkSystem(cfg *config.Config, result *doctorResult) {
	workDir := cfg.Toolchain.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}
	result.System.WorkDir = workDir

	testFile := filepath.Join(workDir, "texhtml-doctor-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Work directory not writable: %s", workDir))
	} else {
		_ = os.Remove(testFile)
		result.System.WorkDirWritable = true
	}

	if cfg.Output.Embed != config.EmbedStore {
		return
	}
	result.System.StoreDir = cfg.Output.StoreDir
	store, err := texhtml.OpenImageStore(cfg.Output.StoreDir)
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Image store unusable: %v%s", err, hints.ForStoreDirectory()))
		return
	}
	_ = store.Close()
	result.System.StoreReady = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "texhtml doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Toolchain")
	for _, p := range r.Programs {
		if !p.Found {
			fmt.Fprintf(w, "  [ERROR] %s (%s): not found\n", p.Name, p.Stage)
			continue
		}
		fmt.Fprintf(w, "  [OK] %s (%s): %s\n", p.Name, p.Stage, p.Path)
		if p.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", p.Version)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.WorkDirWritable {
		fmt.Fprintf(w, "  [OK] Work directory: %s\n", r.System.WorkDir)
	} else {
		fmt.Fprintf(w, "  [ERROR] Work directory: %s not writable\n", r.System.WorkDir)
	}
	if r.System.StoreDir != "" {
		if r.System.StoreReady {
			fmt.Fprintf(w, "  [OK] Image store: %s\n", r.System.StoreDir)
		} else {
			fmt.Fprintf(w, "  [ERROR] Image store: %s\n", r.System.StoreDir)
		}
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: Ready to convert")
	case statusWarnings:
		fmt.Fprintln(w, "Status: Ready with warnings")
	case statusErrors:
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
