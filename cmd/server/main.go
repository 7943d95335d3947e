package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rupamthxt/imgvec/internal/config"
	"github.com/rupamthxt/imgvec/internal/embed/clip"
	"github.com/rupamthxt/imgvec/internal/fetch"
	"github.com/rupamthxt/imgvec/internal/logging"
	"github.com/rupamthxt/imgvec/internal/vectorize"
	"github.com/urfave/cli/v2"

	vectorHttp "github.com/rupamthxt/imgvec/internal/http"
)

func main() {
	app := &cli.App{
		Name:  "imgvec-server",
		Usage: "Serve CLIP image embeddings over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file (defaults are used when empty)",
				EnvVars: []string{"IMGVEC_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: func(c *cli.Context) error {
			return logging.Setup(os.Stderr, c.String("log-level"))
		},
		Action: serve,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serve(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("loading model", "model", cfg.Model.ID, "endpoint", cfg.Model.Endpoint)
	model, err := clip.Load(cfg.Model)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}
	defer model.Close()

	readyCtx, cancel := context.WithTimeout(c.Context, 5*time.Second)
	if err := model.Ready(readyCtx); err != nil {
		slog.Warn("inference server not ready, requests will fail until it is", "err", err)
	}
	cancel()

	fetcher := fetch.New(cfg.Images.BaseURL, cfg.Images.Timeout,
		fetch.WithRejectTraversal(cfg.Images.RejectTraversal))
	handler := vectorHttp.NewHandler(vectorize.NewService(fetcher, model))

	app := vectorHttp.NewApp(handler, fiber.Config{
		AppName:               "imgvec",
		ReadTimeout:           cfg.Server.ReadTimeout,
		DisableStartupMessage: true,
	})

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		slog.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			slog.Error("shutdown failed", "err", err)
		}
	}()

	slog.Info("imgvec listening", "addr", cfg.Addr(), "images", cfg.Images.BaseURL)
	return app.Listen(cfg.Addr())
}
