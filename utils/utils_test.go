package utils

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porterlabs/pixelsort"
)

func testImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestSaveAndReadRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "out.png")
	src := testImage(6, 4, color.RGBA{R: 10, G: 200, B: 30, A: 255})
	require.NoError(t, SaveImage(src, path))

	got, err := ReadImage(path)
	require.NoError(t, err)
	assert.Equal(t, src.Rect, got.Bounds())

	r, g, b, _ := got.At(2, 2).RGBA()
	assert.Equal(t, uint32(10), r>>8)
	assert.Equal(t, uint32(200), g>>8)
	assert.Equal(t, uint32(30), b>>8)

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestReadImageMissingFile(t *testing.T) {
	t.Parallel()

	_, err := ReadImage(filepath.Join(t.TempDir(), "nope.png"))
	require.Error(t, err)
}

func TestReadImageUnsupportedFormat(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "not-an-image.png")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o644))

	_, err := ReadImage(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, pixelsort.ErrUnsupportedFormat)
}

func TestDominantColorSolidImage(t *testing.T) {
	t.Parallel()

	c := DominantColor(testImage(16, 16, color.RGBA{R: 200, G: 40, B: 40, A: 255}))
	r, g, b := c.RGB255()
	assert.InDelta(t, 200, float64(r), 16)
	assert.InDelta(t, 40, float64(g), 16)
	assert.InDelta(t, 40, float64(b), 16)
}

func TestExtractPaletteTwoToneImage(t *testing.T) {
	t.Parallel()

	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			c := color.RGBA{R: 250, G: 250, B: 250, A: 255}
			if x < 16 {
				c = color.RGBA{R: 10, G: 10, B: 10, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}

	for _, method := range []PaletteMethod{PaletteMethodDominantColor, PaletteMethodKMeans} {
		palette := ExtractPalette(img, 2, method)
		require.NotEmpty(t, palette, method.String())
		assert.LessOrEqual(t, len(palette), 2, method.String())
	}
}

func TestSortPaletteByBrightness(t *testing.T) {
	t.Parallel()

	palette := []colorful.Color{
		{R: 1, G: 1, B: 1},
		{R: 0, G: 0, B: 0},
		{R: 0.5, G: 0.5, B: 0.5},
	}
	SortPaletteByBrightness(palette)
	assert.Equal(t, colorful.Color{R: 0, G: 0, B: 0}, palette[0])
	assert.Equal(t, colorful.Color{R: 1, G: 1, B: 1}, palette[2])
}

func TestParsePaletteMethod(t *testing.T) {
	t.Parallel()

	m, err := ParsePaletteMethod("kmeans")
	require.NoError(t, err)
	assert.Equal(t, PaletteMethodKMeans, m)

	m, err = ParsePaletteMethod("")
	require.NoError(t, err)
	assert.Equal(t, PaletteMethodDominantColor, m)

	_, err = ParsePaletteMethod("median-cut")
	require.Error(t, err)
}

func TestSavePalette(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "palette.png")
	palette := []colorful.Color{{R: 1}, {G: 1}, {B: 1}}
	require.NoError(t, SavePalette(palette, 8, path))

	img, err := ReadImage(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 24, 8), img.Bounds())

	require.Error(t, SavePalette(nil, 8, path))
}
