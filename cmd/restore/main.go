package main

import (
	"log"
	"os"

	"github.com/rupamthxt/imgvec/internal/logging"
	"github.com/rupamthxt/imgvec/internal/restore"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "restore",
		Usage: "Restore documents from an exported search response (search.json) via the bulk API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Usage:   "Elasticsearch URL",
				Value:   restore.DefaultURL,
				EnvVars: []string{"ELASTIC_URL"},
			},
			&cli.StringFlag{
				Name:  "file",
				Usage: "Path to search.json",
				Value: restore.DefaultFile,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Set logging level (debug, info, warn, error)",
				Value: "warn",
			},
		},
		Before: func(c *cli.Context) error {
			return logging.Setup(os.Stderr, c.String("log-level"))
		},
		Action: func(c *cli.Context) error {
			return restore.Run(c.Context, restore.Options{
				File: c.String("file"),
				URL:  c.String("url"),
			}, c.App.Writer)
		},
	}
}
