package toolchain

import (
	"errors"
	"fmt"
)

// Sentinel errors for toolchain operations.
var (
	ErrToolchain       = errors.New("toolchain failed")
	ErrInvalidFormat   = errors.New("invalid output format")
	ErrInvalidCommand  = errors.New("invalid command")
	ErrInvalidTemplate = errors.New("invalid document template")
)

// Stage names reported in StageError.
const (
	StageIntermediate = "intermediate"
	StageRasterize    = "rasterize"
)

// StageError reports a failed toolchain stage. Diagnostic holds the most
// useful lines of the tool's output.
type StageError struct {
	Stage      string
	Diagnostic string
	Err        error // underlying cause, may be nil
}

func (e *StageError) Error() string {
	msg := fmt.Sprintf("%s stage failed", e.Stage)
	if e.Diagnostic != "" {
		msg += ": " + e.Diagnostic
	}
	return msg
}

func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrToolchain}
	}
	return []error{ErrToolchain, e.Err}
}
