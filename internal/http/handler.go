package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rupamthxt/imgvec/internal/metrics"
)

// Vectorizer is the pipeline behind POST /vectorize
type Vectorizer interface {
	Vectorize(ctx context.Context, path string) ([]float32, error)
}

type Handler struct {
	vectorizer Vectorizer
}

func NewHandler(v Vectorizer) *Handler {
	return &Handler{vectorizer: v}
}

// Vectorize answers {"vector": [...]} or, on any pipeline failure,
// 500 with the error message as detail.
func (h *Handler) Vectorize(c *fiber.Ctx) error {
	metrics.VectorizeRequests.Inc()
	start := time.Now()
	defer func() {
		metrics.VectorizeDuration.Observe(time.Since(start).Seconds())
	}()

	var req VectorizeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{Detail: "cannot parse json: " + err.Error()})
	}
	if req.FilePath == nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{Detail: "file_path is required"})
	}

	vector, err := h.vectorizer.Vectorize(c.UserContext(), *req.FilePath)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Detail: err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(VectorizeResponse{Vector: vector})
}

// NewApp builds the fiber app with all routes registered
func NewApp(h *Handler, cfg ...fiber.Config) *fiber.App {
	app := fiber.New(cfg...)
	app.Use(recover.New())
	app.Use(logger.New())

	app.Post("/vectorize", h.Vectorize)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	return app
}
