// Package restore replays an exported search response into a search engine
// through its bulk API.
package restore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const (
	DefaultURL  = "http://localhost:9201"
	DefaultFile = "search.json"
)

// Options configure a restore run
type Options struct {
	File string
	URL  string

	// HTTPClient overrides the client used for the bulk call. Optional.
	HTTPClient *http.Client
}

// Run loads the dump and submits it in one bulk request, printing the outcome to out.
// Only dump read or parse failures are returned; submission failures are printed.
func Run(ctx context.Context, opts Options, out io.Writer) error {
	logger := slog.Default().With("component", "restore")

	dump, err := LoadDump(opts.File)
	if err != nil {
		return err
	}

	hits := dump.Documents()
	if len(hits) == 0 {
		fmt.Fprintf(out, "No data in %s\n", opts.File)
		return nil
	}

	reqs := BuildRequests(hits)
	logger.Debug("submitting bulk request", "url", opts.URL, "documents", len(reqs))

	submitter, err := NewSubmitter(opts.URL, opts.HTTPClient)
	if err != nil {
		printError(out, err)
		return nil
	}
	defer submitter.Close()

	resp, err := submitter.Submit(ctx, reqs)
	if err != nil {
		printError(out, err)
		return nil
	}

	if resp.Errors {
		fmt.Fprintln(out, "Some documents failed:")
		for _, item := range resp.Items {
			result, ok := item["index"]
			if !ok || len(result.Error) == 0 || string(result.Error) == "null" {
				continue
			}
			fmt.Fprintf(out, "  - %s\n", compact(result.Error))
		}
		return nil
	}

	// the count is what was sent, not what the engine acknowledged
	fmt.Fprintf(out, "Restored %d documents to Elasticsearch\n", len(hits))
	return nil
}

func printError(out io.Writer, err error) {
	fmt.Fprintf(out, "Error: %v\n", err)

	var respErr *ResponseError
	if errors.As(err, &respErr) {
		fmt.Fprintln(out, strings.TrimSpace(string(respErr.Body)))
	}
}
