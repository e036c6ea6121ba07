package simplemenu

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	"github.com/nfnt/resize"
)

const (
	// DefaultMaxDimension bounds both sides of a normalized image.
	DefaultMaxDimension = 2048

	// DefaultJPEGQuality is the encoder quality of normalized images.
	DefaultJPEGQuality = 85
)

// Normalizer turns an uploaded image into an RGB JPEG that fits a bounding box.
type Normalizer struct {
	MaxDimension uint
	Quality      int
}

// NewNormalizer returns a normalizer with the default box and quality.
func NewNormalizer() Normalizer {
	return Normalizer{MaxDimension: DefaultMaxDimension, Quality: DefaultJPEGQuality}
}

// Normalize decodes r, flattens it onto an opaque RGB canvas, downsamples it
// to fit MaxDimension (never upsampling) and re-encodes it as JPEG.
func (n Normalizer) Normalize(r io.Reader) ([]byte, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return nil, &ValidationError{Field: "file", Reason: "not a decodable image", Err: err}
	}

	img := flatten(src)

	limit := n.MaxDimension
	if limit == 0 {
		limit = DefaultMaxDimension
	}
	b := img.Bounds()
	if uint(b.Dx()) > limit || uint(b.Dy()) > limit {
		img = resize.Thumbnail(limit, limit, img, resize.Lanczos3)
	}

	quality := n.Quality
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode %s image as jpeg: %w", format, err)
	}
	return buf.Bytes(), nil
}

// flatten draws src over white so transparent areas do not turn black.
func flatten(src image.Image) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}
