package main

import (
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/alnah/go-texhtml"
	"github.com/alnah/go-texhtml/internal/toolchain"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now      func() time.Time
	Stdout   io.Writer
	Stderr   io.Writer
	Getenv   func(string) string
	Environ  func() []string
	LookPath func(string) (string, error)
	Runner   texhtml.CommandRunner // nil runs the real programs
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:      time.Now,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Getenv:   os.Getenv,
		Environ:  os.Environ,
		LookPath: exec.LookPath,
	}
}

func (e *Environment) runner() texhtml.CommandRunner {
	if e.Runner != nil {
		return e.Runner
	}
	return &toolchain.ExecRunner{}
}

// newLogger returns a text logger on stderr. Quiet keeps errors only,
// verbose adds per-span debug records.
func newLogger(w io.Writer, quiet, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case quiet:
		level = slog.LevelError
	case verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
