package providers

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/listlens/listlens/internal/common"
)

// Image is an encoded picture attached to a prompt.
type Image struct {
	Data      []byte
	MediaType string
}

// Base64 returns the image data in standard base64.
func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DataURI returns the image as a data: URI.
func (i Image) DataURI() string {
	return "data:" + i.MediaType + ";base64," + i.Base64()
}

// Config represents one request to an LLM provider
type Config struct {
	Model       string
	Temperature float64
	MaxTokens   int
	System      string
	Prompt      string
	Images      []Image
	// JSON asks the provider for a JSON-only answer where it supports that.
	JSON bool
}

// Provider defines the interface for an LLM provider
type Provider interface {
	ExtractText(ctx context.Context, config Config) (string, error)
}

// StatusError is a non-2xx answer from a provider API.
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// Is matches auth and rate limit statuses against the shared sentinels.
func (e *StatusError) Is(target error) bool {
	switch target {
	case common.ErrUnauthenticated:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case common.ErrQuotaExceeded:
		return e.StatusCode == http.StatusTooManyRequests
	}
	return false
}
