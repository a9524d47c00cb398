package dataset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brizzai/auto-eda/internal/config"
	"github.com/brizzai/auto-eda/internal/logger"
	"go.uber.org/zap"
)

const (
	defaultFetchTimeout = 30 * time.Second
	// maxSampleBytes caps a downloaded sample file
	maxSampleBytes = 64 << 20
)

// FetchError is returned when a sample URL answers with a non-2xx status
type FetchError struct {
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: unexpected status %d", e.URL, e.StatusCode)
}

// HTTPFetcher downloads sample files
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a fetcher with the configured download timeout
func NewHTTPFetcher(cfg *config.Config) *HTTPFetcher {
	timeout := cfg.Profiler.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch returns the body of url
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain, */*")

	logger.Debug("Fetching sample", zap.String("url", url))
	return f.execute(req)
}

func (f *HTTPFetcher) execute(req *http.Request) (body []byte, err error) {
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &FetchError{URL: req.URL.String(), StatusCode: resp.StatusCode}
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxSampleBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) > maxSampleBytes {
		return nil, fmt.Errorf("sample at %s exceeds %d bytes", req.URL, maxSampleBytes)
	}
	return body, nil
}
