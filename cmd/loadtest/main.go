package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v2"
)

// VectorizeRequest mirrors the server's request body
type VectorizeRequest struct {
	FilePath string `json:"file_path"`
}

type VectorizeResponse struct {
	Vector []float32 `json:"vector"`
}

func main() {
	app := &cli.App{
		Name:  "loadtest",
		Usage: "Fire concurrent /vectorize requests and report throughput",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "target",
				Usage: "Vectorizer base URL",
				Value: "http://localhost:5000",
			},
			&cli.StringSliceFlag{
				Name:     "path",
				Usage:    "Image path to request (repeatable, used round robin)",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "requests",
				Usage: "Total number of requests",
				Value: 200,
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Number of concurrent workers",
				Value: 10,
			},
			&cli.IntFlag{
				Name:  "dimensions",
				Usage: "Expected vector length",
				Value: 512,
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	target := c.String("target") + "/vectorize"
	paths := c.StringSlice("path")
	total := c.Int("requests")
	concurrency := c.Int("concurrency")
	dims := c.Int("dimensions")

	if concurrency <= 0 || total <= 0 {
		return fmt.Errorf("requests and concurrency must be greater than 0")
	}

	fmt.Printf("Target: %s | Workers: %d | Requests: %d\n", target, concurrency, total)

	client := &http.Client{Timeout: 2 * time.Minute}
	var failures atomic.Int64

	runTest(total, concurrency, func(i int) {
		if err := sendRequest(client, target, paths[i%len(paths)], dims); err != nil {
			failures.Add(1)
			fmt.Printf("request %d error: %v\n", i, err)
		}
	})

	fmt.Printf("Failures: %d/%d\n", failures.Load(), total)
	return nil
}

// runTest spreads totalOps over workers and prints duration and QPS
func runTest(totalOps, workers int, op func(i int)) {
	var wg sync.WaitGroup
	var next atomic.Int64
	start := time.Now()

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1)) - 1
				if i >= totalOps {
					return
				}
				op(i)
			}
		}()
	}

	wg.Wait()
	duration := time.Since(start)
	qps := float64(totalOps) / duration.Seconds()

	fmt.Printf("Duration: %s\n", duration)
	fmt.Printf("QPS: %.2f\n", qps)
}

func sendRequest(client *http.Client, target, path string, dims int) error {
	jsonBody, err := json.Marshal(VectorizeRequest{FilePath: path})
	if err != nil {
		return err
	}

	resp, err := client.Post(target, "application/json", bytes.NewReader(jsonBody))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var detail struct {
			Detail string `json:"detail"`
		}
		json.NewDecoder(resp.Body).Decode(&detail)
		return fmt.Errorf("status %d: %s", resp.StatusCode, detail.Detail)
	}

	var out VectorizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}
	if len(out.Vector) != dims {
		return fmt.Errorf("got %d values, expected %d", len(out.Vector), dims)
	}
	return nil
}
