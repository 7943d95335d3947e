package restore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/olivere/elastic/v7"
)

// BulkResult is the part of a _bulk response that gets reported.
// Item errors stay raw so every field the engine returns is printed.
type BulkResult struct {
	Errors bool                  `json:"errors"`
	Items  []map[string]BulkItem `json:"items"`
}

type BulkItem struct {
	Status int             `json:"status"`
	Error  json.RawMessage `json:"error,omitempty"`
}

// ResponseError is a failed bulk call with the body the engine answered with
type ResponseError struct {
	Err  error
	Body []byte
}

func (e *ResponseError) Error() string { return e.Err.Error() }

func (e *ResponseError) Unwrap() error { return e.Err }

// Submitter sends bulk requests to a search engine
type Submitter struct {
	client   *elastic.Client
	recorder *bodyRecorder
}

// NewSubmitter creates a client for url. Sniffing and health checks are off,
// so nothing is sent until Submit. httpClient may be nil.
func NewSubmitter(url string, httpClient *http.Client) (*Submitter, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	recorder := &bodyRecorder{next: httpClient}

	client, err := elastic.NewClient(
		elastic.SetURL(url),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
		elastic.SetHttpClient(recorder),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create search client: %w", err)
	}
	return &Submitter{client: client, recorder: recorder}, nil
}

// Submit posts all requests to /_bulk in a single call. No retries.
// A rejected call returns a *ResponseError when the engine sent a body.
func (s *Submitter) Submit(ctx context.Context, reqs []elastic.BulkableRequest) (*BulkResult, error) {
	s.recorder.reset()

	_, err := s.client.Bulk().Add(reqs...).Do(ctx)
	body := s.recorder.last()
	if err != nil {
		if len(bytes.TrimSpace(body)) > 0 {
			return nil, &ResponseError{Err: err, Body: body}
		}
		return nil, err
	}

	var result BulkResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse bulk response: %w", err)
	}
	return &result, nil
}

// Close stops the client's background work
func (s *Submitter) Close() {
	s.client.Stop()
}

// bodyRecorder keeps a copy of the last response body. The search client
// drops bodies it cannot decode as a structured error.
type bodyRecorder struct {
	next elastic.Doer

	mu   sync.Mutex
	body []byte
}

func (r *bodyRecorder) Do(req *http.Request) (*http.Response, error) {
	resp, err := r.next.Do(req)
	if err != nil {
		return resp, err
	}

	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.body = data
	r.mu.Unlock()

	resp.Body = io.NopCloser(bytes.NewReader(data))
	return resp, nil
}

func (r *bodyRecorder) reset() {
	r.mu.Lock()
	r.body = nil
	r.mu.Unlock()
}

func (r *bodyRecorder) last() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body
}
