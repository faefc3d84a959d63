package main

import (
	"errors"
	"os"

	"github.com/alnah/go-texhtml"
	"github.com/alnah/go-texhtml/internal/assets"
	"github.com/alnah/go-texhtml/internal/config"
	"github.com/alnah/go-texhtml/internal/toolchain"
)

// Exit codes for the texhtml CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess   = 0 // Successful conversion
	ExitGeneral   = 1 // General/unexpected error
	ExitUsage     = 2 // Invalid flags, config, or validation
	ExitIO        = 3 // File not found, permission denied
	ExitToolchain = 4 // TeX toolchain missing or unusable
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, ErrMissingProgram) ||
		errors.Is(err, toolchain.ErrToolchain) {
		return ExitToolchain
	}

	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, ErrOpenStore) {
		return ExitIO
	}

	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, texhtml.ErrNoTagRules) ||
		errors.Is(err, texhtml.ErrInvalidTagRule) ||
		errors.Is(err, texhtml.ErrInvalidTemplate) ||
		errors.Is(err, texhtml.ErrInvalidEmbedMode) ||
		errors.Is(err, texhtml.ErrInvalidAssetPath) ||
		errors.Is(err, assets.ErrTemplateNotFound) ||
		errors.Is(err, assets.ErrInvalidAssetName) ||
		errors.Is(err, toolchain.ErrInvalidFormat) ||
		errors.Is(err, toolchain.ErrInvalidCommand) ||
		errors.Is(err, toolchain.ErrInvalidTemplate) ||
		errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrNoOutput) {
		return ExitUsage
	}

	return ExitGeneral
}
