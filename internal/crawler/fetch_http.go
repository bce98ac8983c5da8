package crawler

import (
	"context"
	"io"

	"bito/concertworker/helpers"
)

// HTTPFetcher downloads the page without running its scripts. It only works
// for listings that are rendered on the server.
type HTTPFetcher struct {
	UserAgent string
}

// Name returns the driver name
func (f *HTTPFetcher) Name() string { return "http" }

// Fetch downloads targetURL and returns the UTF-8 body
func (f *HTTPFetcher) Fetch(ctx context.Context, targetURL string) (string, error) {
	reader, err := helpers.FetchWithRandomHeaders(ctx, targetURL, f.UserAgent)
	if err != nil {
		return "", err
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
