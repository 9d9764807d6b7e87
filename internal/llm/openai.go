package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

const (
	defaultLMStudioBaseURL = "http://localhost:1234/v1"
	defaultOpenAIBaseURL   = "https://api.openai.com/v1"
)

// OpenAIClient talks to any OpenAI-compatible chat completions API:
// OpenAI itself, LM Studio, and the Copilot proxy.
type OpenAIClient struct {
	client   openai.Client
	provider string
	model    string
	baseURL  string
	logger   *zap.Logger
}

func newOpenAIClient(provider, model, baseURL string, logger *zap.Logger, reqOpts ...option.RequestOption) *OpenAIClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	reqOpts = append([]option.RequestOption{option.WithBaseURL(baseURL)}, reqOpts...)
	return &OpenAIClient{
		client:   openai.NewClient(reqOpts...),
		provider: provider,
		model:    model,
		baseURL:  baseURL,
		logger:   logger.With(zap.String("provider", provider), zap.String("model", model)),
	}
}

// NewOpenAICompatibleClient creates a client for OpenAI or LM Studio. The
// API key comes from LABGRID_LLM_API_KEY, then OPENAI_API_KEY. LM Studio
// accepts any key; OpenAI needs a real one.
func NewOpenAICompatibleClient(provider, model, baseURL string, opts ...Option) (*OpenAIClient, error) {
	o := applyOptions(opts)
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("%s model is required", provider)
	}

	apiKey := firstEnv("LABGRID_LLM_API_KEY", "OPENAI_API_KEY")
	switch provider {
	case ProviderLMStudio:
		if baseURL == "" {
			baseURL = defaultLMStudioBaseURL
		}
		if apiKey == "" {
			apiKey = "lm-studio"
		}
	case ProviderOpenAI:
		if baseURL == "" {
			baseURL = defaultOpenAIBaseURL
		}
		if apiKey == "" {
			return nil, errors.New("openai needs an API key: set LABGRID_LLM_API_KEY or OPENAI_API_KEY")
		}
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}

	return newOpenAIClient(provider, model, baseURL, o.logger, option.WithAPIKey(apiKey)), nil
}

// Chat sends messages to the LLM and returns the response.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (string, error) {
	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: toOpenAIMessages(messages),
	})
	if err != nil {
		c.logger.Warn("chat completion failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return "", fmt.Errorf("%s chat completion: %w", c.provider, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	content := resp.Choices[0].Message.Content
	c.logger.Debug("chat completion",
		zap.Int("messages", len(messages)),
		zap.Int("reply_len", len(content)),
		zap.Duration("elapsed", time.Since(start)))
	return content, nil
}

// ChatJSON sends messages and parses the response as JSON into the provided type.
func (c *OpenAIClient) ChatJSON(ctx context.Context, messages []Message, result any) error {
	content, err := c.Chat(ctx, messages)
	if err != nil {
		return err
	}
	return decodeJSON(content, result)
}

// toOpenAIMessages converts messages for OpenAI-compatible endpoints.
// Unknown roles are sent as user messages.
func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			out[i] = openai.SystemMessage(msg.Content)
		case RoleAssistant:
			out[i] = openai.AssistantMessage(msg.Content)
		default:
			out[i] = openai.UserMessage(msg.Content)
		}
	}
	return out
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
