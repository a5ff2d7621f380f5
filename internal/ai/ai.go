package ai

import (
	"context"
	"fmt"

	"ragstack/internal/config"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role    Role
	Content string
}

// Provider is the embedding and chat capability set every model vendor
// must implement. The same provider instance serves both the ingest path
// (chunk embedding) and the query path (query embedding + answer
// generation), so the embedding space is guaranteed to match.
type Provider interface {
	// Embed returns one embedding vector per input text, in input order,
	// computed in a single batched call.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Chat runs one chat completion over the given messages and returns
	// the assistant text.
	Chat(ctx context.Context, messages []Message) (string, error)
}

// New builds a Provider from configuration. Construct once at startup and
// inject it into the components that need it; there is no package-level
// default instance.
func New(cfg *config.AIConfig) (Provider, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGemini(cfg.APIKey, cfg.ChatModel, cfg.EmbedModel), nil
	case "openai":
		return NewOpenAI(cfg.APIKey, cfg.BaseURL, cfg.ChatModel, cfg.EmbedModel), nil
	case "ollama":
		return NewOllama(cfg.BaseURL, cfg.ChatModel, cfg.EmbedModel)
	default:
		return nil, fmt.Errorf("unsupported AI provider: %q", cfg.Provider)
	}
}
