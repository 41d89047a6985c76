package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"
)

// Generator is the contract the analyzer depends on: system instructions and
// a user message in, raw model text out. Implementations own retries and
// timeouts; the analyzer performs a single call per analysis.
type Generator interface {
	Invoke(ctx context.Context, system, user string) (string, error)
}

// ChatGenerator implements Generator on top of an Eino chat model.
type ChatGenerator struct {
	cfg Config
}

// NewChatGenerator creates a generator for the configured provider.
func NewChatGenerator(cfg Config) *ChatGenerator {
	return &ChatGenerator{cfg: cfg}
}

// Invoke sends one system+user exchange to the model and returns the
// response text. Provider failures come back as *GeneratorError.
func (g *ChatGenerator) Invoke(ctx context.Context, system, user string) (string, error) {
	chatModel, err := NewChatModel(ctx, g.cfg)
	if err != nil {
		return "", fmt.Errorf("create model: %w", err)
	}

	messages := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	}

	resp, err := chatModel.Generate(ctx, messages)
	if err != nil {
		return "", classifyError(err)
	}

	return resp.Content, nil
}
