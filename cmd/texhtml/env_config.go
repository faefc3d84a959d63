package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-texhtml/internal/config"
)

// envConfig holds configuration from TEXHTML_* environment variables.
type envConfig struct {
	ConfigPath string        // TEXHTML_CONFIG: config file name or path
	Timeout    time.Duration // TEXHTML_TIMEOUT: per-invocation toolchain timeout
	Workers    int           // TEXHTML_WORKERS: parallel workers
	OutputDir  string        // TEXHTML_OUTPUT_DIR: default output directory
	StoreDir   string        // TEXHTML_STORE_DIR: image store directory, enables store mode
	WorkDir    string        // TEXHTML_WORK_DIR: parent of job directories
}

// knownEnvVars lists valid TEXHTML_* environment variables.
var knownEnvVars = map[string]bool{
	"TEXHTML_CONFIG":     true,
	"TEXHTML_TIMEOUT":    true,
	"TEXHTML_WORKERS":    true,
	"TEXHTML_OUTPUT_DIR": true,
	"TEXHTML_STORE_DIR":  true,
	"TEXHTML_WORK_DIR":   true,
}

// loadEnvConfig reads configuration from environment variables.
// Malformed numbers and durations are ignored.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath: getenv("TEXHTML_CONFIG"),
		OutputDir:  getenv("TEXHTML_OUTPUT_DIR"),
		StoreDir:   getenv("TEXHTML_STORE_DIR"),
		WorkDir:    getenv("TEXHTML_WORK_DIR"),
	}
	if timeout := getenv("TEXHTML_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	if workers := getenv("TEXHTML_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}
	return cfg
}

// warnUnknownEnvVars warns about unrecognized TEXHTML_* variables.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, kv := range environ {
		if !strings.HasPrefix(kv, "TEXHTML_") {
			continue
		}
		name, _, _ := strings.Cut(kv, "=")
		if !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

// applyEnvConfig fills config values that are still unset.
// Precedence: CLI flags > env vars > config file > defaults.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Timeout > 0 && cfg.Toolchain.Timeout == "" {
		cfg.Toolchain.Timeout = env.Timeout.String()
	}
	if env.WorkDir != "" && cfg.Toolchain.WorkDir == "" {
		cfg.Toolchain.WorkDir = env.WorkDir
	}
	if env.StoreDir != "" && cfg.Output.StoreDir == "" {
		cfg.Output.StoreDir = env.StoreDir
		cfg.Output.Embed = config.EmbedStore
	}
}
