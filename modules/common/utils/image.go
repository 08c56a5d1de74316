package utils

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"  // GIF decoder
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"math"
)

// MaxImagePixels caps width*height of images DecodeImage accepts.
const MaxImagePixels = 40_000_000

// ErrImageTooLarge - header dimensions exceed MaxImagePixels
var ErrImageTooLarge = errors.New("image dimensions too large")

// DecodeImage decodes any registered format and returns the format name.
// The header is checked against MaxImagePixels before pixels are allocated.
func DecodeImage(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("image data cannot be empty")
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return nil, "", fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// FitSize returns the largest size with the source aspect ratio that fits in
// maxWidth x maxHeight. Images already inside the box keep their size.
func FitSize(srcWidth, srcHeight, maxWidth, maxHeight int) (int, int) {
	if srcWidth <= 0 || srcHeight <= 0 {
		return 0, 0
	}
	if srcWidth <= maxWidth && srcHeight <= maxHeight {
		return srcWidth, srcHeight
	}

	scale := math.Min(float64(maxWidth)/float64(srcWidth), float64(maxHeight)/float64(srcHeight))
	w := int(math.Max(1, math.Round(float64(srcWidth)*scale)))
	h := int(math.Max(1, math.Round(float64(srcHeight)*scale)))
	return w, h
}

// Thumbnail scales src to fit maxWidth x maxHeight with nearest-neighbour sampling.
func Thumbnail(src image.Image, maxWidth, maxHeight int) image.Image {
	b := src.Bounds()
	w, h := FitSize(b.Dx(), b.Dy(), maxWidth, maxHeight)
	if w == b.Dx() && h == b.Dy() {
		return src
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	scaleX := float64(b.Dx()) / float64(w)
	scaleY := float64(b.Dy()) / float64(h)

	for y := 0; y < h; y++ {
		srcY := b.Min.Y + int(float64(y)*scaleY)
		for x := 0; x < w; x++ {
			srcX := b.Min.X + int(float64(x)*scaleX)
			dst.Set(x, y, src.At(srcX, srcY))
		}
	}

	return dst
}

// ToRGBA copies img into an RGBA canvas; the WebP encoder wants one.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
