package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
)

// Ollama implements Provider against a local or remote Ollama server.
type Ollama struct {
	client     *ollama.Client
	chatModel  string
	embedModel string
}

// NewOllama creates an Ollama provider. An empty base URL defaults to the
// local Ollama endpoint.
func NewOllama(baseURL, chatModel, embedModel string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base URL: %w", err)
	}

	hc := &http.Client{
		Timeout: 120 * time.Second,
	}

	return &Ollama{
		client:     ollama.NewClient(parsedURL, hc),
		chatModel:  chatModel,
		embedModel: embedModel,
	}, nil
}

// Embed sends all texts in one batched embed request.
func (o *Ollama) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := o.client.Embed(ctx, &ollama.EmbedRequest{
		Model: o.embedModel,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama embed: got %d vectors for %d texts", len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}

// Chat runs one non-streaming chat request and collects the reply.
func (o *Ollama) Chat(ctx context.Context, messages []Message) (string, error) {
	msgs := make([]ollama.Message, len(messages))
	for i, m := range messages {
		msgs[i] = ollama.Message{
			Role:    string(m.Role),
			Content: m.Content,
		}
	}

	stream := false
	var sb strings.Builder
	err := o.client.Chat(ctx, &ollama.ChatRequest{
		Model:    o.chatModel,
		Messages: msgs,
		Stream:   &stream,
	}, func(resp ollama.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	return sb.String(), nil
}

var _ Provider = (*Ollama)(nil)
