// Package embed defines the image embedding contract used by the vectorizer.
//
// Implementations live in sub-packages:
//
//   - embed/clip: CLIP image encoder served by a KServe v2 compatible inference server
//   - embed/mock: deterministic test double
//
// An Embedder is created once at startup and shared by all requests, so
// implementations must be safe for concurrent use.
package embed

import (
	"context"
	"image"
)

// Embedder maps an image to a fixed-length vector
type Embedder interface {
	// Embed returns exactly Dimensions() values for img.
	Embed(ctx context.Context, img image.Image) ([]float32, error)

	// Dimensions is the length of every vector returned by Embed.
	Dimensions() int

	// Close releases resources held by the embedder.
	Close() error
}
