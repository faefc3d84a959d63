package texhtml

import "errors"

// Sentinel errors for library operations.
var (
	// Call-level errors: the whole conversion is aborted.
	ErrEmptyDocument     = errors.New("document cannot be nil")
	ErrSelectionNotFound = errors.New("editable region not found in document")

	// Configuration errors, reported by NewConverter and NewTagRule.
	ErrNoTagRules       = errors.New("at least one tag rule is required")
	ErrInvalidTagRule   = errors.New("invalid tag rule")
	ErrInvalidTemplate  = errors.New("invalid template")
	ErrInvalidEmbedMode = errors.New("invalid embed mode")
	ErrInvalidAssetPath = errors.New("invalid asset path")

	// Per-match errors, rendered inline as error annotations.
	ErrRenderFailed = errors.New("render failed")
	ErrEmptyOutput  = errors.New("an unknown error occurred, make sure your TeX installation has all the required packages, or set it to install missing packages on-the-fly")
	ErrBadPayload   = errors.New("embedded markup cannot be decoded")
)
