package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini implements Provider on top of the Google GenAI API.
//
// The underlying client is dialed lazily on first use, so constructing a
// Gemini at startup is cheap and never touches the network.
type Gemini struct {
	apiKey     string
	chatModel  string
	embedModel string

	initOnce sync.Once
	client   *genai.Client
	initErr  error
}

// NewGemini creates a Gemini provider. The client connection is deferred
// until the first Embed or Chat call.
func NewGemini(apiKey, chatModel, embedModel string) *Gemini {
	return &Gemini{
		apiKey:     apiKey,
		chatModel:  chatModel,
		embedModel: embedModel,
	}
}

func (g *Gemini) ensureClient(ctx context.Context) (*genai.Client, error) {
	g.initOnce.Do(func() {
		g.client, g.initErr = genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	})
	return g.client, g.initErr
}

// Embed batches all texts into a single BatchEmbedContents request.
func (g *Gemini) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	cl, err := g.ensureClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	em := cl.EmbeddingModel(g.embedModel)
	batch := em.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}

	resp, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("gemini batch embed: %w", err)
	}

	out := make([][]float32, 0, len(resp.Embeddings))
	for _, e := range resp.Embeddings {
		out = append(out, e.Values)
	}
	return out, nil
}

// Chat maps system messages onto the model's system instruction and sends
// the remaining turns as content parts.
func (g *Gemini) Chat(ctx context.Context, messages []Message) (string, error) {
	cl, err := g.ensureClient(ctx)
	if err != nil {
		return "", fmt.Errorf("gemini client: %w", err)
	}

	model := cl.GenerativeModel(g.chatModel)

	var parts []genai.Part
	for _, m := range messages {
		if m.Role == RoleSystem {
			model.SystemInstruction = &genai.Content{
				Parts: []genai.Part{genai.Text(m.Content)},
			}
			continue
		}
		parts = append(parts, genai.Text(m.Content))
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String(), nil
}

// Close releases the underlying client, if it was ever dialed.
func (g *Gemini) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

var _ Provider = (*Gemini)(nil)
