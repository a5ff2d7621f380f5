package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"ragstack/internal/ai"
	"ragstack/internal/rag/schema"
	"ragstack/pkg/logger"
)

type fakeProvider struct {
	embedCalls int
	embedErr   error
	chatErr    error
	chatReply  string

	lastEmbedded []string
	lastMessages []ai.Message
}

func (f *fakeProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.embedCalls++
	f.lastEmbedded = texts
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1}
	}
	return out, nil
}

func (f *fakeProvider) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	f.lastMessages = messages
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return f.chatReply, nil
}

type fakeStore struct {
	upserted map[string][]*schema.Document
	entries  []*schema.Retrieved
	lastTopK int
	queryErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{upserted: make(map[string][]*schema.Document)}
}

func (f *fakeStore) Upsert(ctx context.Context, tenantID string, docs []*schema.Document) error {
	f.upserted[tenantID] = append(f.upserted[tenantID], docs...)
	return nil
}

func (f *fakeStore) Search(ctx context.Context, tenantID string, vector []float32, topK int) ([]*schema.Retrieved, error) {
	f.lastTopK = topK
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if topK >= len(f.entries) {
		return f.entries, nil
	}
	return f.entries[:topK], nil
}

func (f *fakeStore) DeleteByDocument(ctx context.Context, tenantID, documentID string) error {
	return nil
}

func retrievedEntry(docID, text string) *schema.Retrieved {
	return &schema.Retrieved{
		Document: &schema.Document{
			ID:       docID + "-chunk",
			Text:     text,
			Metadata: map[string]string{schema.MetadataKeyDocumentID: docID},
		},
		Score: 1,
	}
}

func TestIndexerEmptyChunks(t *testing.T) {
	provider := &fakeProvider{}
	indexer := NewIndexer(provider, newFakeStore(), logger.New("test"))

	count, err := indexer.Index(context.Background(), "t1", "d1", nil)
	if err != nil {
		t.Fatalf("index failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 chunks, got %d", count)
	}
	if provider.embedCalls != 0 {
		t.Errorf("provider must not be called for an empty chunk list")
	}
}

func TestIndexerTagsAndEmbedsChunks(t *testing.T) {
	provider := &fakeProvider{}
	store := newFakeStore()
	indexer := NewIndexer(provider, store, logger.New("test"))

	chunks := []*schema.Document{
		{ID: "c1", Text: "first"},
		{ID: "c2", Text: "second"},
	}
	count, err := indexer.Index(context.Background(), "t1", "d1", chunks)
	if err != nil {
		t.Fatalf("index failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 chunks indexed, got %d", count)
	}
	if provider.embedCalls != 1 {
		t.Errorf("expected one batched embed call, got %d", provider.embedCalls)
	}

	stored := store.upserted["t1"]
	if len(stored) != 2 {
		t.Fatalf("expected 2 stored chunks, got %d", len(stored))
	}
	for _, chunk := range stored {
		if chunk.Metadata[schema.MetadataKeyTenantID] != "t1" {
			t.Errorf("chunk missing tenant id")
		}
		if chunk.Metadata[schema.MetadataKeyDocumentID] != "d1" {
			t.Errorf("chunk missing document id")
		}
		if len(chunk.Embedding) == 0 {
			t.Errorf("chunk missing embedding")
		}
	}
}

func TestIndexerEmbedFailure(t *testing.T) {
	provider := &fakeProvider{embedErr: fmt.Errorf("quota exceeded")}
	indexer := NewIndexer(provider, newFakeStore(), logger.New("test"))

	_, err := indexer.Index(context.Background(), "t1", "d1", []*schema.Document{{Text: "x"}})
	if !errors.Is(err, ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding, got %v", err)
	}
}

func TestRetrieverDefaultTopK(t *testing.T) {
	provider := &fakeProvider{}
	store := newFakeStore()
	store.entries = []*schema.Retrieved{retrievedEntry("d1", "a"), retrievedEntry("d2", "b")}

	r := NewRetriever(provider, store, 0)
	results, err := r.Retrieve(context.Background(), "t1", "question", 0)
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if store.lastTopK != DefaultTopK {
		t.Errorf("expected default top-k %d, got %d", DefaultTopK, store.lastTopK)
	}
	if len(results) != 2 {
		t.Errorf("fewer entries than k must all be returned, got %d", len(results))
	}
	if len(provider.lastEmbedded) != 1 || provider.lastEmbedded[0] != "question" {
		t.Errorf("the query itself must be embedded, got %v", provider.lastEmbedded)
	}
}

func TestComposerGroundedAnswer(t *testing.T) {
	provider := &fakeProvider{chatReply: "grounded answer"}
	store := newFakeStore()
	store.entries = []*schema.Retrieved{
		retrievedEntry("d1", strings.Repeat("long text ", 50)),
		retrievedEntry("d2", "short"),
	}

	retriever := NewRetriever(provider, store, 4)
	composer := NewComposer(retriever, provider, 20, logger.New("test"))

	answer, err := composer.Answer(context.Background(), "t1", "what is this?")
	if err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if answer.Text != "grounded answer" {
		t.Errorf("unexpected answer %q", answer.Text)
	}
	if len(answer.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(answer.Sources))
	}
	if answer.Sources[0].DocumentID != "d1" {
		t.Errorf("source must carry the document id, got %q", answer.Sources[0].DocumentID)
	}
	if want := strings.Repeat("long text ", 2) + "..."; answer.Sources[0].Preview != want {
		t.Errorf("preview not truncated: %q", answer.Sources[0].Preview)
	}
	if answer.Sources[1].Preview != "short" {
		t.Errorf("short text must not get an ellipsis: %q", answer.Sources[1].Preview)
	}

	if len(provider.lastMessages) != 2 {
		t.Fatalf("expected system + user message, got %d", len(provider.lastMessages))
	}
	if provider.lastMessages[0].Role != ai.RoleSystem {
		t.Errorf("first message must be the system prompt")
	}
	user := provider.lastMessages[1].Content
	for _, want := range []string{"[Doc d1]", "[Doc d2]", "Question: what is this?"} {
		if !strings.Contains(user, want) {
			t.Errorf("user prompt missing %q:\n%s", want, user)
		}
	}
}

func TestComposerEmptyIndex(t *testing.T) {
	provider := &fakeProvider{chatReply: "I do not know."}
	retriever := NewRetriever(provider, newFakeStore(), 4)
	composer := NewComposer(retriever, provider, 300, logger.New("test"))

	answer, err := composer.Answer(context.Background(), "t1", "anything?")
	if err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if len(answer.Sources) != 0 {
		t.Errorf("expected no sources for an empty index, got %d", len(answer.Sources))
	}
	if answer.Text == "" {
		t.Errorf("an empty index must still produce an answer")
	}
}

func TestComposerChatFailure(t *testing.T) {
	provider := &fakeProvider{chatErr: fmt.Errorf("model offline")}
	retriever := NewRetriever(provider, newFakeStore(), 4)
	composer := NewComposer(retriever, provider, 300, logger.New("test"))

	_, err := composer.Answer(context.Background(), "t1", "q")
	if !errors.Is(err, ErrChatProvider) {
		t.Fatalf("expected ErrChatProvider, got %v", err)
	}
}

func TestComposerRetrievalFailure(t *testing.T) {
	provider := &fakeProvider{}
	store := newFakeStore()
	store.queryErr = fmt.Errorf("index offline")
	retriever := NewRetriever(provider, store, 4)
	composer := NewComposer(retriever, provider, 300, logger.New("test"))

	_, err := composer.Answer(context.Background(), "t1", "q")
	if !errors.Is(err, ErrRetrieval) {
		t.Fatalf("expected ErrRetrieval, got %v", err)
	}
}

func TestComposerKeepsEmbeddingSentinel(t *testing.T) {
	provider := &fakeProvider{embedErr: fmt.Errorf("quota exceeded")}
	retriever := NewRetriever(provider, newFakeStore(), 4)
	composer := NewComposer(retriever, provider, 300, logger.New("test"))

	_, err := composer.Answer(context.Background(), "t1", "q")
	if !errors.Is(err, ErrRetrieval) {
		t.Errorf("expected ErrRetrieval in the chain, got %v", err)
	}
	// The embedding cause must stay matchable through the retrieval wrap.
	if !errors.Is(err, ErrEmbedding) {
		t.Errorf("expected ErrEmbedding in the chain, got %v", err)
	}
}
