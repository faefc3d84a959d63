// Package imagesize determines the pixel dimensions of a rendered image.
//
// Raster formats are decoded natively (PNG, JPEG and GIF from the standard
// library, BMP, TIFF and WebP from golang.org/x/image). When raster decoding
// fails the file is read as markup and the root <svg> element's width and
// height attributes are used instead.
package imagesize

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
	"golang.org/x/net/html"
)

// Sentinel errors for vector size extraction.
var (
	ErrUnsupportedFormat = errors.New("output format unsupported")
	ErrNoSVGRoot         = errors.New("can't find 'svg' element")
	ErrNoSVGSize         = errors.New("can't find 'width' and 'height' attributes")
	ErrBadSVGSize        = errors.New("unknown format for 'width' and 'height' attributes, should be in '<number>px' format")
)

// maxSVGSize bounds how much of a vector file is read for its root element.
const maxSVGSize = 16 << 20

// pxDimension matches the leading numeric portion of a "<number>px" value.
var pxDimension = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)px\s*$`)

// Size holds image dimensions in pixels.
type Size struct {
	Width  float64
	Height float64
}

// Read returns the pixel size of the image at path.
func Read(path string) (Size, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path produced by the toolchain
	if err != nil {
		return Size{}, fmt.Errorf("reading image: %w", err)
	}

	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		return Size{Width: float64(cfg.Width), Height: float64(cfg.Height)}, nil
	}

	size, err := svgSize(bytes.NewReader(data))
	if err != nil {
		return Size{}, fmt.Errorf("%w %q: %w", ErrUnsupportedFormat, path, err)
	}
	return size, nil
}

// svgSize reads width and height from the root <svg> element.
func svgSize(r io.Reader) (Size, error) {
	z := html.NewTokenizer(io.LimitReader(r, maxSVGSize))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return Size{}, ErrNoSVGRoot
		case html.TextToken:
			if strings.TrimSpace(string(z.Text())) != "" {
				return Size{}, ErrNoSVGRoot
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "svg" {
				return Size{}, ErrNoSVGRoot
			}
			return sizeFromAttrs(tok.Attr)
		}
		// Comments (including the XML declaration), doctypes and
		// whitespace precede the root element.
	}
}

func sizeFromAttrs(attrs []html.Attribute) (Size, error) {
	var width, height string
	var hasWidth, hasHeight bool
	for _, a := range attrs {
		switch a.Key {
		case "width":
			width, hasWidth = a.Val, true
		case "height":
			height, hasHeight = a.Val, true
		}
	}
	if !hasWidth || !hasHeight {
		return Size{}, ErrNoSVGSize
	}

	w, err := parsePx(width)
	if err != nil {
		return Size{}, err
	}
	h, err := parsePx(height)
	if err != nil {
		return Size{}, err
	}
	return Size{Width: w, Height: h}, nil
}

func parsePx(s string) (float64, error) {
	m := pxDimension.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrBadSVGSize, s)
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadSVGSize, s)
	}
	return v, nil
}
