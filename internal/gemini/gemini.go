package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/listlens/listlens/internal/providers"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Gemini is a provider for Google Gemini
type Gemini struct {
	apiKey string
}

// New returns a new Gemini provider
func New(apiKey string) *Gemini {
	return &Gemini{apiKey: apiKey}
}

// ExtractText sends the prompt and images to Gemini
func (g *Gemini) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	if g.apiKey == "" {
		return "", &providers.StatusError{Provider: "gemini", StatusCode: http.StatusUnauthorized, Message: "GEMINI_API_KEY not set"}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(config.Model)
	model.SetTemperature(float32(config.Temperature))
	if config.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(config.MaxTokens))
	}
	if config.System != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(config.System))
	}
	if config.JSON {
		model.ResponseMIMEType = "application/json"
	}

	parts := make([]genai.Part, 0, len(config.Images)+1)
	for _, img := range config.Images {
		parts = append(parts, genai.ImageData(strings.TrimPrefix(img.MediaType, "image/"), img.Data))
	}
	parts = append(parts, genai.Text(config.Prompt))

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", mapError(err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from Gemini")
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("unexpected response format from Gemini")
	}
	return sb.String(), nil
}

// mapError turns REST and gRPC failures into a providers.StatusError where
// the status is known.
func mapError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &providers.StatusError{Provider: "gemini", StatusCode: gerr.Code, Message: gerr.Message}
	}

	if s, ok := status.FromError(err); ok {
		code := 0
		switch s.Code() {
		case codes.Unauthenticated:
			code = http.StatusUnauthorized
		case codes.PermissionDenied:
			code = http.StatusForbidden
		case codes.ResourceExhausted:
			code = http.StatusTooManyRequests
		case codes.InvalidArgument:
			code = http.StatusBadRequest
		case codes.Unavailable:
			code = http.StatusServiceUnavailable
		}
		if code != 0 {
			return &providers.StatusError{Provider: "gemini", StatusCode: code, Message: s.Message()}
		}
	}

	return fmt.Errorf("failed to generate content: %w", err)
}
