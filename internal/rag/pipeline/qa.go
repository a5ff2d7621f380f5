package pipeline

import (
	"context"
	"fmt"
	"strings"

	"ragstack/internal/ai"
	"ragstack/internal/rag/schema"
	"ragstack/pkg/logger"
)

// DefaultPreviewLength bounds the source text previews attached to answers.
const DefaultPreviewLength = 300

const systemPrompt = "You are a helpful assistant. Use ONLY the provided context to answer the question. If the context does not contain the answer, say you do not know."

// Source points an answer back at one of the retrieved chunks.
type Source struct {
	DocumentID string `json:"document_id"`
	Preview    string `json:"text_preview"`
}

// Answer is a grounded answer together with the sources it drew on.
type Answer struct {
	Text    string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// Composer answers questions over a tenant's indexed documents: retrieve
// context, build a grounded prompt, run one chat completion.
type Composer struct {
	log       *logger.Logger
	retriever *Retriever
	provider  ai.Provider
	preview   int
}

// NewComposer creates a Composer. Non-positive previewLength falls back to
// DefaultPreviewLength.
func NewComposer(retriever *Retriever, provider ai.Provider, previewLength int, log *logger.Logger) *Composer {
	if previewLength <= 0 {
		previewLength = DefaultPreviewLength
	}
	return &Composer{
		log:       log,
		retriever: retriever,
		provider:  provider,
		preview:   previewLength,
	}
}

// Answer retrieves context for the query and generates a grounded answer.
// A tenant with nothing indexed still gets an answer; the model is told the
// context is empty and the sources list stays empty.
func (c *Composer) Answer(ctx context.Context, tenantID, query string) (*Answer, error) {
	// Double-wrap so callers can match both the stage and the cause, e.g.
	// an embedding failure behind a retrieval failure.
	retrieved, err := c.retriever.Retrieve(ctx, tenantID, query, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}

	text, err := c.provider.Chat(ctx, []ai.Message{
		{Role: ai.RoleSystem, Content: systemPrompt},
		{Role: ai.RoleUser, Content: buildUserPrompt(retrieved, query)},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChatProvider, err)
	}

	answer := &Answer{
		Text:    text,
		Sources: make([]Source, 0, len(retrieved)),
	}
	for _, r := range retrieved {
		answer.Sources = append(answer.Sources, Source{
			DocumentID: r.Document.Metadata[schema.MetadataKeyDocumentID],
			Preview:    truncate(r.Document.Text, c.preview),
		})
	}

	c.log.WithTenant(tenantID).WithField("sources", len(answer.Sources)).Info("composed answer")
	return answer, nil
}

// buildUserPrompt renders the retrieved chunks, each tagged with its
// document id, followed by the question.
func buildUserPrompt(retrieved []*schema.Retrieved, query string) string {
	var sb strings.Builder
	sb.WriteString("Context:\n")
	for _, r := range retrieved {
		docID := r.Document.Metadata[schema.MetadataKeyDocumentID]
		sb.WriteString(fmt.Sprintf("[Doc %s]\n%s\n\n", docID, r.Document.Text))
	}
	sb.WriteString("Question: ")
	sb.WriteString(query)
	return sb.String()
}

// truncate bounds s to limit characters, marking cut-off text with an
// ellipsis.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
