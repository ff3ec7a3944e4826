package llm

import (
	"context"
	"errors"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenRouterModel = "openai/gpt-4o-mini"

// OpenRouterProvider 通过 OpenAI 兼容接口调用 OpenRouter
type OpenRouterProvider struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

func NewOpenRouterProvider(apiKey, baseURL, model string, timeout time.Duration) *OpenRouterProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = defaultOpenRouterModel
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenRouterProvider{
		client:  openai.NewClient(opts...),
		model:   model,
		timeout: timeout,
	}
}

func (p *OpenRouterProvider) Name() string { return "openrouter" }

func (p *OpenRouterProvider) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openrouter: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}
