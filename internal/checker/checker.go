// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package checker generates checkerboard test frames and writes them as
// binary PPM files, giving the converter something to chew on.
package checker

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	pnm "github.com/jbuchbinder/gopnm"
)

const (
	// DefaultSize is the width and height of a generated frame.
	DefaultSize = 64
	// DefaultCell is the edge length of one checker square.
	DefaultCell = 8
)

// Checkerboard returns a width x height image of alternating black and white
// squares of cell pixels, starting with black in the top-left corner.
func Checkerboard(width, height, cell int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid size %dx%d", width, height)
	}
	if cell <= 0 {
		return nil, fmt.Errorf("invalid cell size %d", cell)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	black := color.RGBA{A: 255}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if ((x/cell)+(y/cell))%2 == 1 {
				img.SetRGBA(x, y, white)
			} else {
				img.SetRGBA(x, y, black)
			}
		}
	}
	return img, nil
}

// WritePPM writes img to path as a binary (P6) PPM, creating the parent
// directory if needed.
func WritePPM(path string, img image.Image) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(f)
	if err := pnm.Encode(bw, img, pnm.PPM); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return bw.Flush()
}
