package llm

import (
	"context"
	"fmt"
	"strings"
)

// Provider names accepted in the [llm] config section.
const (
	ProviderCopilot  = "copilot"
	ProviderOllama   = "ollama"
	ProviderLMStudio = "lmstudio"
	ProviderOpenAI   = "openai"
)

// NormalizeProvider maps accepted spellings to a provider name. Empty
// means Copilot.
func NormalizeProvider(provider string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", ProviderCopilot:
		return ProviderCopilot, nil
	case ProviderOllama:
		return ProviderOllama, nil
	case ProviderLMStudio, "lm-studio", "llmstudio":
		return ProviderLMStudio, nil
	case ProviderOpenAI:
		return ProviderOpenAI, nil
	default:
		return "", fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}

// NewClient creates an LLM client based on provider configuration.
// ctx bounds the Copilot token exchange.
func NewClient(ctx context.Context, provider, model, baseURL string, opts ...Option) (Client, error) {
	name, err := NormalizeProvider(provider)
	if err != nil {
		return nil, err
	}
	switch name {
	case ProviderCopilot:
		return NewCopilotClient(ctx, model, opts...)
	case ProviderOllama:
		return NewOllamaClient(model, baseURL, opts...)
	default:
		return NewOpenAICompatibleClient(name, model, baseURL, opts...)
	}
}
