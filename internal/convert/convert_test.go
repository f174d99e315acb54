// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	pnm "github.com/jbuchbinder/gopnm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ppm-batch/internal/codec"
	"github.com/pdiddy/ppm-batch/pkg/types"
)

var (
	red   = color.RGBA{R: 255, A: 255}
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// writePPM creates a solid-color binary PPM in dir and returns its path.
func writePPM(t *testing.T, dir, name string, w, h int, c color.RGBA) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, pnm.Encode(&buf, img, pnm.PPM))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func readPNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	return img
}

func assertSolid(t *testing.T, img image.Image, w, h int, want color.RGBA) {
	t.Helper()
	require.Equal(t, image.Rect(0, 0, w, h), img.Bounds())
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			assert.Equal(t, want, color.RGBAModel.Convert(img.At(x, y)), "pixel %d,%d", x, y)
		}
	}
}

func newTestConverter(out *bytes.Buffer, opts ...Option) *Converter {
	if out == nil {
		return NewConverter(codec.NewPNM(0), io.Discard, opts...)
	}
	return NewConverter(codec.NewPNM(0), out, opts...)
}

// recorderFunc adapts a function to Recorder.
type recorderFunc func(ctx context.Context, c types.Conversion) error

func (f recorderFunc) Record(ctx context.Context, c types.Conversion) error { return f(ctx, c) }

// brokenEncoder decodes with the real codec but refuses to encode.
type brokenEncoder struct {
	*codec.PNM
}

func (brokenEncoder) Encode(io.Writer, image.Image, imaging.Format) error {
	return errors.New("disk full")
}

func TestRun_ConvertsEachSourceToPNG(t *testing.T) {
	dir := t.TempDir()
	a := writePPM(t, dir, "a.ppm", 2, 2, red)
	b := writePPM(t, dir, "b.ppm", 1, 1, white)

	var out bytes.Buffer
	report, err := newTestConverter(&out).Run(context.Background(), Config{SourceDir: dir, TargetExt: "png"})
	require.NoError(t, err)

	aOut := filepath.Join(dir, "a.png")
	bOut := filepath.Join(dir, "b.png")
	assertSolid(t, readPNG(t, aOut), 2, 2, red)
	assertSolid(t, readPNG(t, bOut), 1, 1, white)

	want := "Converted " + a + " -> " + aOut + "\n" +
		"Converted " + b + " -> " + bOut + "\n"
	assert.Equal(t, want, out.String())

	assert.Equal(t, 2, report.Discovered)
	assert.Equal(t, 2, report.Converted)
	assert.True(t, report.Complete())
	assert.Equal(t, "PNG", report.Format)
	assert.NotEmpty(t, report.RunID)
	require.Len(t, report.Conversions, 2)
	assert.Equal(t, types.Conversion{
		RunID:       report.RunID,
		Source:      a,
		Output:      aOut,
		Format:      "PNG",
		Width:       2,
		Height:      2,
		Bytes:       report.Conversions[0].Bytes,
		ConvertedAt: report.Conversions[0].ConvertedAt,
	}, report.Conversions[0])
	info, err := os.Stat(aOut)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), report.Conversions[0].Bytes)
}

func TestRun_OutputCountAndBaseNamesMatchSources(t *testing.T) {
	dir := t.TempDir()
	names := []string{"frame_000", "frame_001", "frame_002", "frame.final"}
	for _, n := range names {
		writePPM(t, dir, n+".ppm", 3, 2, red)
	}

	report, err := newTestConverter(nil).Run(context.Background(), Config{SourceDir: dir, TargetExt: ".png"})
	require.NoError(t, err)
	assert.Equal(t, len(names), report.Converted)

	outputs, err := filepath.Glob(filepath.Join(dir, "*.png"))
	require.NoError(t, err)
	require.Len(t, outputs, len(names))
	for _, n := range names {
		assert.FileExists(t, filepath.Join(dir, n+".png"))
	}
}

func TestRun_PNGRoundTripMatchesSourcePixels(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(60 * x), G: uint8(80 * y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, pnm.Encode(&buf, img, pnm.PPM))
	src := filepath.Join(dir, "gradient.ppm")
	require.NoError(t, os.WriteFile(src, buf.Bytes(), 0o644))

	_, err := newTestConverter(nil).Run(context.Background(), Config{SourceDir: dir, TargetExt: "png"})
	require.NoError(t, err)

	f, err := os.Open(src)
	require.NoError(t, err)
	defer f.Close()
	orig, err := codec.NewPNM(0).Decode(f)
	require.NoError(t, err)

	got := readPNG(t, filepath.Join(dir, "gradient.png"))
	require.Equal(t, orig.Bounds(), got.Bounds())
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			assert.Equal(t, color.RGBAModel.Convert(orig.At(x, y)), color.RGBAModel.Convert(got.At(x, y)))
		}
	}
}

func TestRun_SecondRunOverwritesWithIdenticalBytes(t *testing.T) {
	dir := t.TempDir()
	writePPM(t, dir, "a.ppm", 5, 4, red)
	writePPM(t, dir, "b.ppm", 1, 1, white)
	cfg := Config{SourceDir: dir, TargetExt: "png"}

	_, err := newTestConverter(nil).Run(context.Background(), cfg)
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(dir, "a.png"))
	require.NoError(t, err)

	report, err := newTestConverter(nil).Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Converted)

	second, err := os.ReadFile(filepath.Join(dir, "a.png"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRun_EmptyAndMissingDirectories(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
	}{
		{
			name:  "empty directory",
			setup: func(t *testing.T) string { return t.TempDir() },
		},
		{
			name: "no ppm files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
				return dir
			},
		},
		{
			name:  "missing directory",
			setup: func(t *testing.T) string { return filepath.Join(t.TempDir(), "frames") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			report, err := newTestConverter(&out).Run(context.Background(), Config{SourceDir: tt.setup(t), TargetExt: "png"})
			require.NoError(t, err)
			assert.Equal(t, 0, report.Discovered)
			assert.Equal(t, 0, report.Converted)
			assert.True(t, report.Complete())
			assert.Empty(t, out.String())
		})
	}
}

func TestRun_InvalidSourceAbortsBatch(t *testing.T) {
	dir := t.TempDir()
	a := writePPM(t, dir, "a.ppm", 2, 2, red)
	bad := filepath.Join(dir, "b.ppm")
	require.NoError(t, os.WriteFile(bad, []byte("this is not an image"), 0o644))
	writePPM(t, dir, "c.ppm", 1, 1, white)

	var out bytes.Buffer
	report, err := newTestConverter(&out).Run(context.Background(), Config{SourceDir: dir, TargetExt: "png"})
	require.Error(t, err)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, bad, decodeErr.Path)

	assert.FileExists(t, filepath.Join(dir, "a.png"))
	assert.NoFileExists(t, filepath.Join(dir, "b.png"))
	assert.NoFileExists(t, filepath.Join(dir, "c.png"))
	assert.Equal(t, "Converted "+a+" -> "+filepath.Join(dir, "a.png")+"\n", out.String())

	assert.Equal(t, 3, report.Discovered)
	assert.Equal(t, 1, report.Converted)
	assert.Equal(t, bad, report.FailedSource)
	assert.Equal(t, 1, report.Unprocessed())
	assert.False(t, report.Complete())
	assert.Contains(t, report.Error, "decoding")
}

func TestRun_MalformedHeaderIsDecodeError(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "negative width raw", data: "P6 -1 2 255\nabcdefghijkl"},
		{name: "negative dimensions plain", data: "P3 -1 -1 255\n1 2 3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			src := filepath.Join(dir, "a.ppm")
			require.NoError(t, os.WriteFile(src, []byte(tt.data), 0o644))

			var report Report
			var err error
			require.NotPanics(t, func() {
				report, err = newTestConverter(nil).Run(context.Background(), Config{SourceDir: dir, TargetExt: "png"})
			})

			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)
			assert.Equal(t, src, decodeErr.Path)
			assert.NoFileExists(t, filepath.Join(dir, "a.png"))
			assert.Equal(t, src, report.FailedSource)
		})
	}
}

func TestRun_UnsupportedExtensionFailsBeforeAnyWrite(t *testing.T) {
	dir := t.TempDir()
	writePPM(t, dir, "a.ppm", 1, 1, red)

	var out bytes.Buffer
	_, err := newTestConverter(&out).Run(context.Background(), Config{SourceDir: dir, TargetExt: "webp"})
	require.ErrorIs(t, err, codec.ErrUnsupportedFormat)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Empty(t, out.String())
}

func TestRun_UnwritableOutputIsWriteError(t *testing.T) {
	dir := t.TempDir()
	writePPM(t, dir, "a.ppm", 1, 1, red)
	// A directory squatting on the output path makes the create fail.
	blocked := filepath.Join(dir, "a.png")
	require.NoError(t, os.Mkdir(blocked, 0o755))

	_, err := newTestConverter(nil).Run(context.Background(), Config{SourceDir: dir, TargetExt: "png"})
	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, blocked, writeErr.Path)
}

func TestRun_EncodeFailureIsWriteError(t *testing.T) {
	dir := t.TempDir()
	writePPM(t, dir, "a.ppm", 1, 1, red)

	conv := NewConverter(brokenEncoder{PNM: codec.NewPNM(0)}, nil)
	_, err := conv.Run(context.Background(), Config{SourceDir: dir, TargetExt: "png"})
	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Contains(t, err.Error(), "disk full")
}

func TestRun_JPEGTarget(t *testing.T) {
	dir := t.TempDir()
	writePPM(t, dir, "a.ppm", 8, 8, red)

	report, err := NewConverter(codec.NewPNM(90), nil).Run(context.Background(), Config{SourceDir: dir, TargetExt: "jpg"})
	require.NoError(t, err)
	assert.Equal(t, "JPEG", report.Format)

	f, err := os.Open(filepath.Join(dir, "a.jpg"))
	require.NoError(t, err)
	defer f.Close()
	img, err := jpeg.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 8), img.Bounds())
}

func TestRun_SkipsDirectoriesAndOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	writePPM(t, dir, "a.ppm", 1, 1, red)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.ppm"), 0o755))
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writePPM(t, sub, "deep.ppm", 1, 1, red)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.ppm.bak"), []byte("x"), 0o644))

	report, err := newTestConverter(nil).Run(context.Background(), Config{SourceDir: dir, TargetExt: "png"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Converted)
	assert.NoFileExists(t, filepath.Join(sub, "deep.png"))
}

func TestRun_DeleteSource(t *testing.T) {
	dir := t.TempDir()
	a := writePPM(t, dir, "a.ppm", 1, 1, red)

	var out bytes.Buffer
	report, err := newTestConverter(&out).Run(context.Background(), Config{SourceDir: dir, TargetExt: "png", DeleteSource: true})
	require.NoError(t, err)

	assert.NoFileExists(t, a)
	assert.FileExists(t, filepath.Join(dir, "a.png"))
	assert.True(t, report.Conversions[0].SourceDeleted)
	assert.Contains(t, out.String(), "Deleted "+a+"\n")
}

func TestRun_RecorderReceivesEveryConversion(t *testing.T) {
	dir := t.TempDir()
	writePPM(t, dir, "a.ppm", 1, 1, red)
	writePPM(t, dir, "b.ppm", 1, 1, white)

	var got []types.Conversion
	rec := recorderFunc(func(_ context.Context, c types.Conversion) error {
		got = append(got, c)
		return nil
	})

	report, err := newTestConverter(nil, WithRecorder(rec)).Run(context.Background(), Config{SourceDir: dir, TargetExt: "png"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, c := range got {
		assert.Equal(t, report.RunID, c.RunID)
	}
	assert.Equal(t, filepath.Join(dir, "b.png"), got[1].Output)
}

func TestRun_RecorderFailureDoesNotAbort(t *testing.T) {
	dir := t.TempDir()
	writePPM(t, dir, "a.ppm", 1, 1, red)
	writePPM(t, dir, "b.ppm", 1, 1, white)

	rec := recorderFunc(func(context.Context, types.Conversion) error {
		return errors.New("database is locked")
	})

	report, err := newTestConverter(nil, WithRecorder(rec)).Run(context.Background(), Config{SourceDir: dir, TargetExt: "png"})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Converted)
}

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	src := writePPM(t, dir, "checker.ppm", 2, 1, white)
	dst := filepath.Join(dir, "out.png")

	var out bytes.Buffer
	conv, err := newTestConverter(&out).ConvertFile(context.Background(), src, dst)
	require.NoError(t, err)
	assert.Equal(t, 2, conv.Width)
	assert.Equal(t, 1, conv.Height)
	assert.NotEmpty(t, conv.RunID)
	assertSolid(t, readPNG(t, dst), 2, 1, white)
	assert.Equal(t, "Converted "+src+" -> "+dst+"\n", out.String())
}

func TestConvertFile_Errors(t *testing.T) {
	dir := t.TempDir()
	src := writePPM(t, dir, "a.ppm", 1, 1, red)

	_, err := newTestConverter(nil).ConvertFile(context.Background(), src, filepath.Join(dir, "a.webp"))
	assert.ErrorIs(t, err, codec.ErrUnsupportedFormat)

	_, err = newTestConverter(nil).ConvertFile(context.Background(), filepath.Join(dir, "missing.ppm"), filepath.Join(dir, "m.png"))
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(types.ConversionConfig{SourceDir: "frames", TargetExt: "jpg", DeleteSource: true, JPEGQuality: 70})
	assert.Equal(t, Config{SourceDir: "frames", TargetExt: "jpg", DeleteSource: true}, cfg)
}

func TestReportWriteYAML(t *testing.T) {
	dir := t.TempDir()
	writePPM(t, dir, "a.ppm", 1, 1, red)

	report, err := newTestConverter(nil).Run(context.Background(), Config{SourceDir: dir, TargetExt: "png"})
	require.NoError(t, err)

	path := filepath.Join(dir, "reports", "run.yaml")
	require.NoError(t, report.WriteYAML(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.True(t, strings.Contains(content, "run_id: "+report.RunID))
	assert.Contains(t, content, "converted: 1")
	assert.Contains(t, content, "format: PNG")
}
