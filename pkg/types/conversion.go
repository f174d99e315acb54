// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for ppm-batch: the
// configuration tree and the record describing one converted file.
package types

import "time"

// Conversion describes one source file that was decoded and written out in
// the target format.
type Conversion struct {
	// RunID identifies the batch run that produced this conversion.
	RunID string `json:"run_id" yaml:"run_id"`

	// Source is the path of the decoded .ppm file.
	Source string `json:"source" yaml:"source"`

	// Output is the path of the written file.
	Output string `json:"output" yaml:"output"`

	// Format is the encoder name (e.g. "PNG", "JPEG").
	Format string `json:"format" yaml:"format"`

	// Width and Height are the image dimensions in pixels.
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`

	// Bytes is the size of the written output file.
	Bytes int64 `json:"bytes" yaml:"bytes"`

	// ConvertedAt is when the output file was closed.
	ConvertedAt time.Time `json:"converted_at" yaml:"converted_at"`

	// SourceDeleted reports whether the source file was removed afterwards.
	SourceDeleted bool `json:"source_deleted,omitempty" yaml:"source_deleted,omitempty"`
}
