package transform

import (
	"bytes"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-blur-bench/pkg/filter"
	"go-blur-bench/pkg/logging"
)

func writeImage(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 6, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(40 * x), G: uint8(60 * y), B: 90, A: 255})
		}
	}
	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(img, path))
	return path
}

type panicFilter struct{}

func (panicFilter) Name() string                    { return "panic" }
func (panicFilter) Apply(image.Image) image.Image { panic("kaboom") }

func TestApplyWritesToOutputDir(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	src := writeImage(t, in, "cat.png")

	f, err := filter.Parse("grayscale")
	require.NoError(t, err)
	a := NewAdapter(Config{OutputDir: out, Write: true}, f, logging.Discard())
	assert.Equal(t, "grayscale", a.FilterName())

	got, err := a.Apply(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "cat.png"), got)

	saved, err := imaging.Open(got)
	require.NoError(t, err)
	assert.Equal(t, 6, saved.Bounds().Dx())

	r, g, b, _ := saved.At(2, 1).RGBA()
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)
}

func TestApplyWithoutWriteLeavesNoFile(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	src := writeImage(t, in, "dog.jpg")

	a := NewAdapter(Config{OutputDir: out}, nil, logging.Discard())
	assert.Equal(t, "noop", a.FilterName())

	got, err := a.Apply(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "dog.jpg"), got)
	_, statErr := os.Stat(got)
	assert.True(t, os.IsNotExist(statErr))
}

func TestApplyDecodeError(t *testing.T) {
	in := t.TempDir()
	bad := filepath.Join(in, "broken.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o644))

	a := NewAdapter(Config{OutputDir: t.TempDir(), Write: true}, nil, logging.Discard())
	_, err := a.Apply(bad)

	require.ErrorIs(t, err, ErrDecode)
	var itemErr *ItemError
	require.ErrorAs(t, err, &itemErr)
	assert.Equal(t, bad, itemErr.Path)

	_, err = a.Apply(filepath.Join(in, "missing.png"))
	require.ErrorIs(t, err, ErrDecode)
}

func TestApplyTransformPanicBecomesError(t *testing.T) {
	src := writeImage(t, t.TempDir(), "x.png")
	a := NewAdapter(Config{OutputDir: t.TempDir(), Write: true}, panicFilter{}, logging.Discard())

	_, err := a.Apply(src)
	require.ErrorIs(t, err, ErrTransform)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestApplyEncodeErrorOnUnknownExtension(t *testing.T) {
	in := t.TempDir()
	src := writeImage(t, in, "x.png")
	odd := filepath.Join(in, "xpng")
	require.NoError(t, os.Rename(src, odd))

	a := NewAdapter(Config{OutputDir: t.TempDir(), Write: true}, nil, logging.Discard())
	_, err := a.Apply(odd)
	require.ErrorIs(t, err, ErrEncode)
}

func TestApplyDebugLogsEachImage(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	src := writeImage(t, t.TempDir(), "bird.png")

	a := NewAdapter(Config{OutputDir: t.TempDir(), Debug: true}, nil, logger)
	_, err := a.Apply(src)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "processed image")
	assert.Contains(t, buf.String(), "bird.png")
}
