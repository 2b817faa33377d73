package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/listlens/listlens/internal/common"
	"github.com/listlens/listlens/internal/providers"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const completion = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 0,
	"model": "gpt-4o",
	"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "[\"milk\"]"}}]
}`

func TestExtractText(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completion))
	}))
	defer srv.Close()

	p := New("sk-test", srv.URL+"/", option.WithMaxRetries(0))
	out, err := p.ExtractText(context.Background(), providers.Config{
		Model:  "gpt-4o",
		Prompt: "read this list",
		System: "be terse",
		JSON:   true,
		Images: []providers.Image{{Data: []byte("hi"), MediaType: "image/jpeg"}},
	})
	require.NoError(t, err)
	assert.Equal(t, `["milk"]`, out)

	assert.Equal(t, "gpt-4o", body["model"])
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)

	user := messages[1].(map[string]any)
	parts := user["content"].([]any)
	require.Len(t, parts, 2)
	image := parts[1].(map[string]any)["image_url"].(map[string]any)
	assert.Equal(t, "data:image/jpeg;base64,aGk=", image["url"])

	format := body["response_format"].(map[string]any)
	assert.Equal(t, "json_object", format["type"])
}

func TestExtractTextMapsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key", "type": "invalid_request_error"}}`))
	}))
	defer srv.Close()

	_, err := New("sk-bad", srv.URL+"/", option.WithMaxRetries(0)).ExtractText(context.Background(), providers.Config{Model: "gpt-4o"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUnauthenticated))
}
