// Package imageproc decodes fetched images and normalizes them to 3-channel RGB.
package imageproc

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// MaxPixels caps the declared size of an image before any pixel is decoded.
// Headers are cheap to forge and decoders allocate the full canvas up front.
const MaxPixels = 2 * 89478485

// Decode parses raw bytes into an image. The format is sniffed from the content;
// jpeg, png, gif, bmp, tiff and webp are recognized.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot identify image file: empty body")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cannot identify image file: %w", err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > MaxPixels {
		return nil, fmt.Errorf("image size (%d pixels) exceeds limit of %d pixels, could be decompression bomb", pixels, MaxPixels)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cannot identify image file: %w", err)
	}
	return img, nil
}

// Normalize decodes data and converts the result to RGB
func Normalize(data []byte) (*RGB, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return ToRGB(img), nil
}
