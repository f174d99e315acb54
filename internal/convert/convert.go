// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert implements the batch PPM conversion loop: discover *.ppm
// files in a directory, decode each one, and write it back out in the format
// selected by the target extension.
//
// The loop is sequential. The first decode or write failure stops the batch;
// files converted before it stay on disk and nothing is rolled back.
package convert

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/ppm-batch/internal/codec"
	"github.com/pdiddy/ppm-batch/pkg/types"
)

// Config selects what a batch run converts.
type Config struct {
	// SourceDir is scanned (non-recursively) for *.ppm files.
	SourceDir string

	// TargetExt is the output extension, with or without the leading dot.
	TargetExt string

	// DeleteSource removes each source file once its output is written.
	DeleteSource bool
}

// ConfigFrom builds a run Config from the shared conversion settings.
func ConfigFrom(c types.ConversionConfig) Config {
	return Config{
		SourceDir:    c.SourceDir,
		TargetExt:    c.TargetExt,
		DeleteSource: c.DeleteSource,
	}
}

// Recorder persists completed conversions. Recording is best effort: an error
// is logged and the batch continues.
type Recorder interface {
	Record(ctx context.Context, c types.Conversion) error
}

// Option configures a Converter.
type Option func(*Converter)

// WithRecorder attaches a Recorder that receives every completed conversion.
func WithRecorder(r Recorder) Option {
	return func(c *Converter) {
		c.recorder = r
	}
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Converter) {
		c.log = log
	}
}

// Converter runs conversions through a codec. Progress lines go to out; the
// logger receives diagnostics.
type Converter struct {
	codec    codec.Codec
	out      io.Writer
	log      zerolog.Logger
	recorder Recorder
	now      func() time.Time
}

// NewConverter creates a Converter that decodes and encodes with cdc and
// prints one progress line per file to out.
func NewConverter(cdc codec.Codec, out io.Writer, opts ...Option) *Converter {
	if out == nil {
		out = io.Discard
	}
	c := &Converter{
		codec: cdc,
		out:   out,
		log:   zerolog.Nop(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run converts every *.ppm file in cfg.SourceDir to cfg.TargetExt.
//
// The target format is resolved before the directory is read, so an
// unsupported extension fails without touching any file. A missing source
// directory yields an empty report and no error. On the first DecodeError or
// WriteError the partial report is returned together with the error.
func (c *Converter) Run(ctx context.Context, cfg Config) (Report, error) {
	format, err := codec.ResolveFormat(cfg.TargetExt)
	if err != nil {
		return Report{}, err
	}
	ext := codec.NormalizeExt(cfg.TargetExt)

	report := Report{
		RunID:     uuid.NewString(),
		SourceDir: cfg.SourceDir,
		TargetExt: ext,
		Format:    format.String(),
		StartedAt: c.now().UTC(),
	}
	log := c.log.With().Str("run_id", report.RunID).Logger()

	sources, err := Discover(cfg.SourceDir)
	if err != nil {
		report.finish(c.now(), "", err)
		return report, err
	}
	report.Discovered = len(sources)
	log.Debug().Str("dir", cfg.SourceDir).Int("files", len(sources)).Str("format", report.Format).Msg("starting batch")

	for _, src := range sources {
		dst := OutputPath(src, ext)

		conv, err := c.convert(src, dst, format)
		if err != nil {
			log.Error().Err(err).Str("source", src).Msg("batch aborted")
			report.finish(c.now(), src, err)
			return report, err
		}
		conv.RunID = report.RunID
		fmt.Fprintf(c.out, "Converted %s -> %s\n", src, dst)

		if cfg.DeleteSource {
			if err := os.Remove(src); err != nil {
				log.Warn().Err(err).Str("source", src).Msg("could not delete source")
			} else {
				conv.SourceDeleted = true
				fmt.Fprintf(c.out, "Deleted %s\n", src)
			}
		}

		c.record(ctx, log, conv)
		report.Conversions = append(report.Conversions, conv)
	}

	report.finish(c.now(), "", nil)
	log.Info().
		Int("converted", report.Converted).
		Dur("elapsed", report.FinishedAt.Sub(report.StartedAt)).
		Msg("batch complete")
	return report, nil
}

// ConvertFile converts a single explicit file pair. The output format comes
// from dst's extension and is validated before src is opened.
func (c *Converter) ConvertFile(ctx context.Context, src, dst string) (types.Conversion, error) {
	format, err := codec.ResolveFormat(filepath.Ext(dst))
	if err != nil {
		return types.Conversion{}, err
	}

	conv, err := c.convert(src, dst, format)
	if err != nil {
		return types.Conversion{}, err
	}
	conv.RunID = uuid.NewString()
	fmt.Fprintf(c.out, "Converted %s -> %s\n", src, dst)

	c.record(ctx, c.log, conv)
	return conv, nil
}

// convert decodes src and writes it to dst. Both file handles are released
// before it returns, whether or not it succeeds.
func (c *Converter) convert(src, dst string, format imaging.Format) (types.Conversion, error) {
	img, err := c.decodeFile(src)
	if err != nil {
		return types.Conversion{}, &DecodeError{Path: src, Err: err}
	}

	n, err := c.writeFile(dst, img, format)
	if err != nil {
		return types.Conversion{}, &WriteError{Path: dst, Err: err}
	}

	b := img.Bounds()
	c.log.Debug().
		Str("source", src).
		Str("output", dst).
		Int("width", b.Dx()).
		Int("height", b.Dy()).
		Int64("bytes", n).
		Msg("converted")

	return types.Conversion{
		Source:      src,
		Output:      dst,
		Format:      format.String(),
		Width:       b.Dx(),
		Height:      b.Dy(),
		Bytes:       n,
		ConvertedAt: c.now().UTC(),
	}, nil
}

func (c *Converter) decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return c.codec.Decode(f)
}

// writeFile creates (or truncates) path and encodes img into it, returning
// the number of bytes written. A failed close is reported as a write error.
func (c *Converter) writeFile(path string, img image.Image, format imaging.Format) (n int64, err error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(f)
	cw := &countingWriter{w: bw}
	if err := c.codec.Encode(cw, img, format); err != nil {
		return cw.n, err
	}
	if err := bw.Flush(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

func (c *Converter) record(ctx context.Context, log zerolog.Logger, conv types.Conversion) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Record(ctx, conv); err != nil {
		log.Warn().Err(err).Str("source", conv.Source).Msg("could not record conversion")
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
