// Package webp wraps libwebp (cgo) encoding and registers the WebP decoder
// with image.Decode.
package webp

import (
	"bytes"
	"fmt"
	"image"

	_ "github.com/kolesa-team/go-webp/decoder" // WebP decoder
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// Encode converts img to lossy WebP at the given quality (0-100).
func Encode(img image.Image, quality float32) ([]byte, error) {
	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, quality)
	if err != nil {
		return nil, fmt.Errorf("failed to create WebP encoder options: %w", err)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, options); err != nil {
		return nil, fmt.Errorf("failed to encode WebP: %w", err)
	}
	return buf.Bytes(), nil
}
