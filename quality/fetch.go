package quality

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	// Image formats product catalogs commonly serve.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

const defaultFetchTimeout = 30 * time.Second

// Fetcher retrieves and decodes images over HTTP with a bounded timeout.
type Fetcher struct {
	client *http.Client
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithTimeout sets the HTTP timeout. Default is 30s.
func WithTimeout(timeout time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.client = &http.Client{Timeout: timeout}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = client
	}
}

// NewFetcher creates a fetcher with a 30s timeout.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client: &http.Client{Timeout: defaultFetchTimeout},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves the image at url and decodes it.
// Returns the decoded image and the encoded byte length.
// There is no retry; HTTP and decode failures surface to the caller.
func (f *Fetcher) Fetch(ctx context.Context, url string) (image.Image, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, 0, fmt.Errorf("%w: unexpected status %d", ErrFetchFailed, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}

	return img, int64(len(data)), nil
}
