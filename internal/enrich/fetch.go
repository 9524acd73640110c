package enrich

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultFetchTimeout bounds one detail-page request.
	DefaultFetchTimeout = 30 * time.Second

	defaultBodyByteLimit = 2 * 1024 * 1024

	defaultUserAgent = "seattle-outdoor-volunteering/1.0 (+https://github.com/ktrnka/seattle-outdoor-volunteering)"
)

// PageFetcher retrieves one detail page body.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// HTTPFetcher fetches detail pages over HTTP with a per-request timeout and a
// body size cap.
type HTTPFetcher struct {
	client        *http.Client
	timeout       time.Duration
	bodyByteLimit int64
	userAgent     string
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &HTTPFetcher{
		client:        &http.Client{Timeout: timeout},
		timeout:       timeout,
		bodyByteLimit: defaultBodyByteLimit,
		userAgent:     defaultUserAgent,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.bodyByteLimit))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}
