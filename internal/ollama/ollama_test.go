package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/listlens/listlens/internal/common"
	"github.com/listlens/listlens/internal/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTextSendsImages(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]string{"response": `{"sections":[]}`})
	}))
	defer srv.Close()

	out, err := New(srv.URL+"/").ExtractText(context.Background(), providers.Config{
		Model:  "llava",
		Prompt: "read this",
		System: "you read lists",
		JSON:   true,
		Images: []providers.Image{{Data: []byte("hi"), MediaType: "image/jpeg"}},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"sections":[]}`, out)

	assert.Equal(t, "llava", got["model"])
	assert.Equal(t, false, got["stream"])
	assert.Equal(t, "json", got["format"])
	assert.Equal(t, "you read lists", got["system"])
	assert.Equal(t, []any{"aGk="}, got["images"])
}

func TestExtractTextStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := New(srv.URL).ExtractText(context.Background(), providers.Config{Model: "llava"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrQuotaExceeded))

	var se *providers.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "ollama", se.Provider)
}
