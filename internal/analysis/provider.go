package analysis

import (
	"fmt"

	"github.com/listlens/listlens/internal/anthropic"
	"github.com/listlens/listlens/internal/gemini"
	"github.com/listlens/listlens/internal/ollama"
	"github.com/listlens/listlens/internal/openai"
	"github.com/listlens/listlens/internal/providers"
)

const DefaultProvider = "anthropic"

// ProviderOptions carries the credentials and endpoint of one provider.
type ProviderOptions struct {
	APIKey  string
	BaseURL string
}

// Providers lists the supported provider names.
func Providers() []string {
	return []string{"anthropic", "openai", "gemini", "ollama"}
}

func DefaultModel(provider string) string {
	switch provider {
	case "anthropic":
		return "claude-sonnet-4-5-20250929"
	case "openai":
		return "gpt-4o"
	case "gemini":
		return "gemini-1.5-flash"
	case "ollama":
		return "mistral-small3.2:24b"
	default:
		return ""
	}
}

// OpenProvider builds the named provider.
func OpenProvider(name string, opts ProviderOptions) (providers.Provider, error) {
	switch name {
	case "anthropic":
		if opts.APIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
		return anthropic.New(opts.APIKey, opts.BaseURL), nil
	case "openai":
		if opts.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY not set")
		}
		return openai.New(opts.APIKey, opts.BaseURL), nil
	case "gemini":
		return gemini.New(opts.APIKey), nil
	case "ollama":
		return ollama.New(opts.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}
}
