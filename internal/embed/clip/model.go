// Package clip implements embed.Embedder with a CLIP image encoder.
//
// Preprocessing (resize, center crop, normalization) runs in process; the
// encoder itself runs on an inference server speaking the KServe v2 HTTP
// protocol, with "pixel_values" as input and "image_embeds" as output.
package clip

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"time"

	"github.com/rupamthxt/imgvec/internal/config"
	"github.com/rupamthxt/imgvec/internal/imageproc"
	"github.com/rupamthxt/imgvec/internal/metrics"
)

// Model is a loaded CLIP image encoder. It is immutable after Load and safe
// for concurrent use.
type Model struct {
	id         string
	dimensions int
	imageSize  int
	infer      *inferenceClient
	client     *http.Client
	logger     *slog.Logger
}

type Option func(*Model)

// WithHTTPClient sets the client used for inference calls
func WithHTTPClient(c *http.Client) Option {
	return func(m *Model) {
		m.client = c
	}
}

// Load creates the model handle from configuration. It does not contact the
// inference server; use Ready for that.
func Load(cfg config.ModelConfig, opts ...Option) (*Model, error) {
	if cfg.Endpoint == "" || cfg.Name == "" {
		return nil, fmt.Errorf("clip: endpoint and model name are required")
	}
	if cfg.Dimensions <= 0 || cfg.ImageSize <= 0 {
		return nil, fmt.Errorf("clip: dimensions and image size must be positive")
	}

	m := &Model{
		id:         cfg.ID,
		dimensions: cfg.Dimensions,
		imageSize:  cfg.ImageSize,
		// no timeout: inference is bounded only by the caller's context
		client: &http.Client{},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.infer = newInferenceClient(cfg.Endpoint, cfg.Name, m.client)
	m.logger = slog.Default().With("component", "clip", "model", cfg.ID)
	return m, nil
}

// Embed preprocesses img and runs it through the image encoder
func (m *Model) Embed(ctx context.Context, img image.Image) ([]float32, error) {
	start := time.Now()
	defer func() {
		metrics.InferenceDuration.Observe(time.Since(start).Seconds())
	}()

	rgb := imageproc.ToRGB(img)
	tensor, err := Preprocess(rgb, m.imageSize)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("running inference", "width", rgb.Rect.Dx(), "height", rgb.Rect.Dy())

	vector, err := m.infer.infer(ctx, tensor)
	if err != nil {
		m.logger.Error("inference failed", "err", err)
		return nil, err
	}
	if len(vector) != m.dimensions {
		return nil, fmt.Errorf("model returned %d values, expected %d", len(vector), m.dimensions)
	}
	return vector, nil
}

// Ready checks that the inference server has the model loaded
func (m *Model) Ready(ctx context.Context) error {
	return m.infer.ready(ctx)
}

func (m *Model) Dimensions() int {
	return m.dimensions
}

// ID returns the pretrained model identifier
func (m *Model) ID() string {
	return m.id
}

// Close drops idle connections to the inference server
func (m *Model) Close() error {
	m.client.CloseIdleConnections()
	return nil
}
