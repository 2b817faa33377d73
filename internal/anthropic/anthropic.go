package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/listlens/listlens/internal/providers"
)

const defaultMaxTokens = 4096

// Anthropic is a provider for the Anthropic Messages API
type Anthropic struct {
	client anthropic.Client
}

// New returns a new Anthropic provider. baseURL may be empty.
func New(apiKey, baseURL string, opts ...anthropicoption.RequestOption) *Anthropic {
	reqOpts := []anthropicoption.RequestOption{anthropicoption.WithAPIKey(apiKey)}
	if baseURL != "" {
		reqOpts = append(reqOpts, anthropicoption.WithBaseURL(baseURL))
	}
	reqOpts = append(reqOpts, opts...)
	return &Anthropic{client: anthropic.NewClient(reqOpts...)}
}

// ExtractText sends the images followed by the prompt as one user turn and
// returns the concatenated text blocks of the reply
func (a *Anthropic) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	var blocks []anthropic.ContentBlockParamUnion
	for _, img := range config.Images {
		blocks = append(blocks, anthropic.NewImageBlockBase64(img.MediaType, img.Base64()))
	}
	blocks = append(blocks, anthropic.NewTextBlock(config.Prompt))

	maxTokens := int64(config.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(config.Model),
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(config.Temperature),
	}
	if config.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: config.System}}
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", &providers.StatusError{Provider: "anthropic", StatusCode: apiErr.StatusCode, Message: apiErr.Error()}
		}
		return "", fmt.Errorf("failed to call Anthropic API: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no text returned from Anthropic")
	}
	return sb.String(), nil
}
