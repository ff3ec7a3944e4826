// Package llm 封装回复生成：OpenRouter 兼容端点优先，本地 Ollama 兜底。
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/wyfcoding/pkg/logging"
)

// ErrNoProvider 所有生成端都不可用
var ErrNoProvider = errors.New("llm: no provider available")

// Generator 文本生成接口
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// FallbackChain 按顺序尝试各 Generator，单次尝试、不重试。
// 全部失败时返回 ErrNoProvider。
type FallbackChain struct {
	providers []Generator
}

func NewFallbackChain(providers ...Generator) *FallbackChain {
	return &FallbackChain{providers: providers}
}

func (c *FallbackChain) Name() string { return "fallback" }

func (c *FallbackChain) Generate(ctx context.Context, prompt string) (string, error) {
	if len(c.providers) == 0 {
		return "", ErrNoProvider
	}
	var lastErr error
	for _, p := range c.providers {
		text, err := p.Generate(ctx, prompt)
		if err == nil && text != "" {
			return text, nil
		}
		if err == nil {
			err = errors.New("empty completion")
		}
		logging.Warn(ctx, "llm provider failed, trying next", "provider", p.Name(), "error", err)
		lastErr = err
	}
	return "", fmt.Errorf("%w: %v", ErrNoProvider, lastErr)
}
