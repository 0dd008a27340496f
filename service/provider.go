package service

import (
	"context"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// ModelOverrides are the per-request knobs of the completion backend. Zero
// values fall back to the provider defaults.
type ModelOverrides struct {
	APIKey    string
	Model     string
	MaxTokens int
}

// ModelProvider builds a chat model for one request.
type ModelProvider interface {
	ChatModel(ctx context.Context, o ModelOverrides) (model.ToolCallingChatModel, error)
}

const (
	DefaultModel     = "gpt-3.5-turbo"
	DefaultMaxTokens = 1000
)

// OpenAIProvider builds eino openai chat models against one endpoint.
type OpenAIProvider struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

var _ ModelProvider = (*OpenAIProvider)(nil)

func NewOpenAIProvider(apiKey, baseURL string) *OpenAIProvider {
	return &OpenAIProvider{
		APIKey:    apiKey,
		BaseURL:   baseURL,
		Model:     DefaultModel,
		MaxTokens: DefaultMaxTokens,
	}
}

func (p *OpenAIProvider) ChatModel(ctx context.Context, o ModelOverrides) (model.ToolCallingChatModel, error) {
	apiKey := p.APIKey
	if o.APIKey != "" {
		apiKey = o.APIKey
	}
	modelName := p.Model
	if o.Model != "" {
		modelName = o.Model
	}
	maxTokens := p.MaxTokens
	if o.MaxTokens > 0 {
		maxTokens = o.MaxTokens
	}
	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:    apiKey,
		BaseURL:   p.BaseURL,
		Model:     modelName,
		MaxTokens: &maxTokens,
	})
}
