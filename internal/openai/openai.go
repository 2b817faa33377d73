package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/listlens/listlens/internal/providers"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAI is a provider for OpenAI and OpenAI-compatible APIs
type OpenAI struct {
	client openai.Client
}

// New returns a new OpenAI provider. baseURL may be empty.
func New(apiKey, baseURL string, opts ...option.RequestOption) *OpenAI {
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	reqOpts = append(reqOpts, opts...)
	return &OpenAI{client: openai.NewClient(reqOpts...)}
}

// ExtractText runs one chat completion with the prompt and images as a
// single user message
func (o *OpenAI) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	parts := []openai.ChatCompletionContentPartUnionParam{openai.TextContentPart(config.Prompt)}
	for _, img := range config.Images {
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: img.DataURI(),
		}))
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if config.System != "" {
		messages = append(messages, openai.SystemMessage(config.System))
	}
	messages = append(messages, openai.ChatCompletionMessageParamUnion{
		OfUser: &openai.ChatCompletionUserMessageParam{
			Content: openai.ChatCompletionUserMessageParamContentUnion{OfArrayOfContentParts: parts},
		},
	})

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(config.Model),
		Messages:    messages,
		Temperature: openai.Float(config.Temperature),
	}
	if config.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(config.MaxTokens))
	}
	if config.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &providers.StatusError{Provider: "openai", StatusCode: apiErr.StatusCode, Message: apiErr.Message}
		}
		return "", fmt.Errorf("failed to call OpenAI API: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}
