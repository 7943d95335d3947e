// Package vectorize runs the fetch, normalize and embed pipeline for one image.
package vectorize

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rupamthxt/imgvec/internal/embed"
	"github.com/rupamthxt/imgvec/internal/fetch"
	"github.com/rupamthxt/imgvec/internal/imageproc"
	"github.com/rupamthxt/imgvec/internal/metrics"
)

// Stage names the pipeline step that failed
type Stage string

const (
	StageFetch  Stage = "fetch"
	StageDecode Stage = "decode"
	StageEmbed  Stage = "embed"
)

// Error wraps a pipeline failure with the stage it happened in.
// Its message is the message of the cause.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// StageOf returns the stage of a pipeline error, or "" for other errors
func StageOf(err error) Stage {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Stage
	}
	return ""
}

// Service turns image paths into embedding vectors. It holds no per-request
// state and may be used concurrently.
type Service struct {
	fetcher  *fetch.Fetcher
	embedder embed.Embedder
	logger   *slog.Logger
}

func NewService(fetcher *fetch.Fetcher, embedder embed.Embedder) *Service {
	return &Service{
		fetcher:  fetcher,
		embedder: embedder,
		logger:   slog.Default().With("component", "vectorize"),
	}
}

// Vectorize fetches the image at path, converts it to RGB and embeds it.
// No step is retried.
func (s *Service) Vectorize(ctx context.Context, path string) ([]float32, error) {
	start := time.Now()
	data, err := s.fetcher.Fetch(ctx, path)
	metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, s.fail(StageFetch, path, err)
	}

	img, err := imageproc.Normalize(data)
	if err != nil {
		return nil, s.fail(StageDecode, path, err)
	}

	vector, err := s.embedder.Embed(ctx, img)
	if err != nil {
		return nil, s.fail(StageEmbed, path, err)
	}

	s.logger.Debug("image vectorized", "path", path, "dims", len(vector), "took", time.Since(start))
	return vector, nil
}

func (s *Service) fail(stage Stage, path string, err error) error {
	metrics.VectorizeFailures.WithLabelValues(string(stage)).Inc()
	s.logger.Warn("vectorize failed", "stage", stage, "path", path, "err", err)
	return &Error{Stage: stage, Err: err}
}
