// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package codec decodes PNM images and encodes them into the format chosen
// by a target file extension. Decoding is delegated to gopnm and encoding to
// imaging; callers depend only on the Codec interface.
package codec

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	pnm "github.com/jbuchbinder/gopnm"

	"github.com/pdiddy/ppm-batch/pkg/types"
)

// ErrUnsupportedFormat is returned when a target extension does not map to an
// encoder.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Codec decodes a source image and encodes it in a resolved output format.
type Codec interface {
	// Decode reads an image from r.
	Decode(r io.Reader) (image.Image, error)
	// Encode writes img to w in format f.
	Encode(w io.Writer, img image.Image, f imaging.Format) error
}

// NormalizeExt strips surrounding whitespace and a leading dot, so "png",
// ".png" and " .png " all become "png". Case is preserved because the
// extension ends up in the output file name.
func NormalizeExt(ext string) string {
	return strings.TrimPrefix(strings.TrimSpace(ext), ".")
}

// ResolveFormat maps a file extension (with or without the leading dot,
// case-insensitive) to an encoder format. Supported: jpg, jpeg, png, gif,
// tif, tiff, bmp.
func ResolveFormat(ext string) (imaging.Format, error) {
	norm := NormalizeExt(ext)
	if norm == "" {
		return 0, fmt.Errorf("empty target extension: %w", ErrUnsupportedFormat)
	}
	f, err := imaging.FormatFromExtension(norm)
	if err != nil {
		return 0, fmt.Errorf("target extension %q: %w", norm, ErrUnsupportedFormat)
	}
	return f, nil
}

// PNM decodes the PNM family (PBM, PGM, PPM in plain and raw encodings) and
// encodes with imaging.
type PNM struct {
	// JPEGQuality is used for JPEG output. Values outside 1..100 fall back to
	// types.DefaultJPEGQuality.
	JPEGQuality int
}

// NewPNM returns a PNM codec with the given JPEG quality.
func NewPNM(jpegQuality int) *PNM {
	return &PNM{JPEGQuality: jpegQuality}
}

// Decode reads a PNM image from r. Headers gopnm cannot size (negative or
// zero dimensions) are reported as errors rather than panics.
func (c *PNM) Decode(r io.Reader) (img image.Image, err error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil || !isPNMMagic(magic) {
		return nil, errors.New("pnm: missing P1-P6 magic number")
	}

	defer func() {
		if p := recover(); p != nil {
			img, err = nil, fmt.Errorf("pnm: malformed image: %v", p)
		}
	}()
	img, err = pnm.Decode(br)
	if err != nil {
		return nil, err
	}

	// image.Rect swaps inverted corners, so a negative width in the header
	// shows up as a non-zero origin rather than an empty rectangle.
	b := img.Bounds()
	if b.Min != (image.Point{}) || b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("pnm: invalid dimensions %v", b)
	}
	return img, nil
}

// Encode writes img to w in format f.
func (c *PNM) Encode(w io.Writer, img image.Image, f imaging.Format) error {
	return imaging.Encode(w, img, f, imaging.JPEGQuality(c.quality()))
}

// isPNMMagic reports whether b starts with one of the magic numbers gopnm
// decodes. gopnm slices the header token without a length check, so short
// or foreign headers are rejected here first.
func isPNMMagic(b []byte) bool {
	return len(b) >= 2 && b[0] == 'P' && b[1] >= '1' && b[1] <= '6'
}

func (c *PNM) quality() int {
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return types.DefaultJPEGQuality
	}
	return c.JPEGQuality
}
