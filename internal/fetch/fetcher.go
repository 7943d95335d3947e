// Package fetch downloads images from the file store.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrTraversal is returned for paths containing a ".." segment when traversal rejection is on
var ErrTraversal = errors.New("path traversal is not allowed")

// StatusError reports a non-2xx answer from the file store
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s for url '%s'", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

// Fetcher retrieves raw image bytes relative to a base URL
type Fetcher struct {
	baseURL         string
	client          *http.Client
	rejectTraversal bool
}

type Option func(*Fetcher)

// WithRejectTraversal makes Fetch refuse paths with ".." segments, percent-encoded or not
func WithRejectTraversal(reject bool) Option {
	return func(f *Fetcher) {
		f.rejectTraversal = reject
	}
}

// WithHTTPClient replaces the default client. Its timeout is kept as given.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Fetcher {
	f := &Fetcher{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// URL joins the base URL and path by plain concatenation
func (f *Fetcher) URL(path string) (string, error) {
	if f.rejectTraversal && hasDotDot(path) {
		return "", fmt.Errorf("%w: %q", ErrTraversal, path)
	}
	return f.baseURL + path, nil
}

// Fetch downloads the image at path. No retries.
func (f *Fetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	url, err := f.URL(path)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: url}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// hasDotDot reports a ".." segment in path or in any percent-decoded form of it
func hasDotDot(path string) bool {
	for i := 0; i < 4; i++ {
		if hasDotDotSegment(path) {
			return true
		}
		unescaped, err := url.PathUnescape(path)
		if err != nil || unescaped == path {
			return false
		}
		path = unescaped
	}
	return true
}

func hasDotDotSegment(path string) bool {
	if !strings.Contains(path, "..") {
		return false
	}
	for _, seg := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return true
		}
	}
	return false
}
