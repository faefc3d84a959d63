// Package metrics reads the vertical alignment side-file the TeX document
// template writes next to every rendered image.
//
// The side-file shares the image's base name with a .dims extension and
// contains two tokens in TeX's \the notation:
//
//	depth:1.5pt
//	height:8.0pt
package metrics

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/alnah/go-texhtml/internal/fileutil"
)

// SideFileExt is the extension of the metrics side-file.
const SideFileExt = "dims"

// Scale converts TeX points to the em-based units used for inline
// alignment. It matches the raster toolchain's point-to-pixel convention for
// the MTPro2 font family (2.0/2.32 relative to Computer Modern).
const Scale = 0.2554 / 1.1 * (2.0 / 2.32)

// DepthPadding is added to the raw depth (in pt) before scaling so that
// descenders never touch the line below.
const DepthPadding = 0.1

// Sentinel errors for metrics extraction.
var (
	ErrSideFileNotFound = errors.New("metrics file not found")
	ErrMissingDepth     = errors.New("metrics file has no depth value")
	ErrMissingHeight    = errors.New("metrics file has no height value")
)

var (
	depthPattern  = regexp.MustCompile(`depth:\s*(-?\d*\.?\d*)pt`)
	heightPattern = regexp.MustCompile(`height:\s*(-?\d*\.?\d*)pt`)
)

// Raw holds the unscaled values read from a side-file, in TeX points.
type Raw struct {
	Depth  float64
	Height float64
}

// Metrics holds scaled alignment values.
// Height is the total box height (height + depth); Depth is the baseline
// offset used for vertical-align.
type Metrics struct {
	Height float64
	Depth  float64
	Raw    Raw
}

// SideFilePath returns the side-file path belonging to imagePath.
func SideFilePath(imagePath string) string {
	return fileutil.SiblingPath(imagePath, SideFileExt)
}

// Read loads and scales the side-file belonging to imagePath.
func Read(imagePath string) (Metrics, error) {
	path := SideFilePath(imagePath)

	data, err := os.ReadFile(path) // #nosec G304 -- path derived from toolchain output
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Metrics{}, fmt.Errorf("%w: %q does not exist", ErrSideFileNotFound, path)
		}
		return Metrics{}, fmt.Errorf("reading metrics file: %w", err)
	}

	raw, err := Parse(string(data))
	if err != nil {
		return Metrics{}, fmt.Errorf("%s: %w", path, err)
	}
	return ScaleRaw(raw), nil
}

// Parse extracts depth and height from side-file content.
// Parsing is locale-invariant: the decimal separator is always '.'.
func Parse(content string) (Raw, error) {
	depth, err := parseField(depthPattern, content, ErrMissingDepth)
	if err != nil {
		return Raw{}, err
	}
	height, err := parseField(heightPattern, content, ErrMissingHeight)
	if err != nil {
		return Raw{}, err
	}
	return Raw{Depth: depth, Height: height}, nil
}

// ScaleRaw applies Scale and DepthPadding to raw side-file values.
func ScaleRaw(raw Raw) Metrics {
	return Metrics{
		Height: (raw.Height + raw.Depth) * Scale,
		Depth:  (raw.Depth + DepthPadding) * Scale,
		Raw:    raw,
	}
}

func parseField(re *regexp.Regexp, content string, missing error) (float64, error) {
	m := re.FindStringSubmatch(content)
	if m == nil || m[1] == "" || m[1] == "-" || m[1] == "." {
		return 0, missing
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", missing, m[1])
	}
	return v, nil
}
