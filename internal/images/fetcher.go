package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// DefaultMaxBytes caps a downloaded or read photo.
const DefaultMaxBytes = 10 << 20

var (
	ErrTooLarge = errors.New("image too large")
	ErrNotImage = errors.New("not an image")
)

// Fetcher retrieves list photos from URLs or local files
type Fetcher struct {
	HTTPClient *http.Client
	MaxBytes   int64
}

// NewFetcher creates a new image fetcher
func NewFetcher(maxBytes int64) *Fetcher {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		MaxBytes: maxBytes,
	}
}

// Load reads source as an http(s) URL or, failing that, as a file path.
func (f *Fetcher) Load(ctx context.Context, source string) ([]byte, error) {
	if IsURL(source) {
		return f.Fetch(ctx, source)
	}

	fh, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer fh.Close()
	return f.read(fh)
}

// Fetch downloads an image from an http(s) URL
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if !IsURL(rawURL) {
		return nil, fmt.Errorf("unsupported image url %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image URL returned status %d", resp.StatusCode)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err == nil && !strings.HasPrefix(mediaType, "image/") && mediaType != "application/octet-stream" {
			return nil, fmt.Errorf("%w: content type %s", ErrNotImage, mediaType)
		}
	}
	if resp.ContentLength > f.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}

	data, err := f.read(resp.Body)
	if err != nil {
		return nil, err
	}
	slog.Debug("Fetched image", "url", rawURL, "bytes", len(data))
	return data, nil
}

func (f *Fetcher) read(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, f.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if int64(len(data)) > f.MaxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.MaxBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrNotImage)
	}
	return data, nil
}

// IsURL reports whether s is an absolute http or https URL.
func IsURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
