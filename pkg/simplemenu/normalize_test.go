package simplemenu

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalizer_DownsamplesAndFlattens(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3000, 1500))
	// Left half red, right half fully transparent.
	for y := 0; y < 1500; y++ {
		for x := 0; x < 1500; x++ {
			src.Set(x, y, color.NRGBA{R: 255, A: 255})
		}
	}

	out, err := NewNormalizer().Normalize(bytes.NewReader(encodePNG(t, src)))
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 2048, decoded.Bounds().Dx())
	assert.Equal(t, 1024, decoded.Bounds().Dy())

	r, g, b, _ := decoded.At(1800, 500).RGBA()
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestNormalizer_NeverUpsamples(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 120, 80))

	out, err := NewNormalizer().Normalize(bytes.NewReader(encodePNG(t, src)))
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 120, cfg.Width)
	assert.Equal(t, 80, cfg.Height)
}

func TestNormalizer_CustomBox(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 400, 800))
	n := Normalizer{MaxDimension: 200, Quality: 70}

	out, err := n.Normalize(bytes.NewReader(encodePNG(t, src)))
	require.NoError(t, err)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 200, cfg.Height)
}

func TestNormalizer_AcceptsGIF(t *testing.T) {
	palette := color.Palette{color.Black, color.White}
	src := image.NewPaletted(image.Rect(0, 0, 10, 10), palette)
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, src, nil))

	out, err := NewNormalizer().Normalize(&buf)
	require.NoError(t, err)
	_, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestNormalizer_RejectsGarbage(t *testing.T) {
	_, err := NewNormalizer().Normalize(strings.NewReader("definitely not an image"))
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}
