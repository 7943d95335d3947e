package mock

import (
	"context"
	"hash/fnv"
	"image"
	"math"
	"sync"

	"github.com/rupamthxt/imgvec/internal/imageproc"
)

// MockEmbedder is a test double for embed.Embedder.
// It allows custom behavior injection via EmbedFunc.
type MockEmbedder struct {
	// EmbedFunc is called by Embed if set.
	// If nil, a deterministic vector derived from the pixels is returned.
	EmbedFunc func(ctx context.Context, img image.Image) ([]float32, error)

	Dims int

	mu        sync.Mutex
	callCount int
	lastImage image.Image
	closed    bool
}

// NewMockEmbedder creates a mock producing vectors of dims values.
// Returns the concrete type so tests can inspect calls.
func NewMockEmbedder(dims int) *MockEmbedder {
	return &MockEmbedder{Dims: dims}
}

// Embed records the call and returns a vector. Like the real model, it only
// accepts 3-channel RGB input.
func (m *MockEmbedder) Embed(ctx context.Context, img image.Image) ([]float32, error) {
	m.mu.Lock()
	m.callCount++
	m.lastImage = img
	fn := m.EmbedFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, img)
	}

	return generateDeterministicVector(imageproc.ToRGB(img), m.Dims), nil
}

func (m *MockEmbedder) Dimensions() int {
	return m.Dims
}

func (m *MockEmbedder) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// CallCount returns the number of Embed calls.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastImage returns the image passed to the latest Embed call.
func (m *MockEmbedder) LastImage() image.Image {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastImage
}

// Closed reports whether Close was called.
func (m *MockEmbedder) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// generateDeterministicVector hashes the pixels into a seed and expands it
// into a unit vector, so equal images give equal vectors.
func generateDeterministicVector(img *imageproc.RGB, dim int) []float32 {
	h := fnv.New32a()
	h.Write(img.Pix)
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000) / 1000.0
	}

	var sumSquares float32
	for _, v := range vector {
		sumSquares += v * v
	}
	if sumSquares > 0 {
		norm := float32(math.Sqrt(float64(sumSquares)))
		for i := range vector {
			vector[i] /= norm
		}
	}
	return vector
}
