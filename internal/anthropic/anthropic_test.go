package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/listlens/listlens/internal/common"
	"github.com/listlens/listlens/internal/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const message = `{
	"id": "msg_1",
	"type": "message",
	"role": "assistant",
	"model": "claude-sonnet-4-20250514",
	"content": [{"type": "text", "text": "{\"sections\": "}, {"type": "text", "text": "[]}"}],
	"stop_reason": "end_turn",
	"usage": {"input_tokens": 10, "output_tokens": 4}
}`

func TestExtractText(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("X-Api-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(message))
	}))
	defer srv.Close()

	p := New("key", srv.URL+"/", anthropicoption.WithMaxRetries(0))
	out, err := p.ExtractText(context.Background(), providers.Config{
		Model:  "claude-sonnet-4-20250514",
		Prompt: "read the list",
		System: "you transcribe lists",
		Images: []providers.Image{{Data: []byte("hi"), MediaType: "image/jpeg"}},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"sections": []}`, out)

	assert.Equal(t, float64(defaultMaxTokens), body["max_tokens"])
	messages := body["messages"].([]any)
	require.Len(t, messages, 1)
	content := messages[0].(map[string]any)["content"].([]any)
	require.Len(t, content, 2)

	image := content[0].(map[string]any)
	assert.Equal(t, "image", image["type"])
	source := image["source"].(map[string]any)
	assert.Equal(t, "base64", source["type"])
	assert.Equal(t, "image/jpeg", source["media_type"])
	assert.Equal(t, "aGk=", source["data"])

	assert.Equal(t, "text", content[1].(map[string]any)["type"])
}

func TestExtractTextMapsRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "rate_limit_error", "message": "slow down"}}`))
	}))
	defer srv.Close()

	_, err := New("key", srv.URL+"/", anthropicoption.WithMaxRetries(0)).ExtractText(context.Background(), providers.Config{Model: "claude"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrQuotaExceeded))
}
