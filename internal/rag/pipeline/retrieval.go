package pipeline

import (
	"context"
	"fmt"

	"ragstack/internal/ai"
	"ragstack/internal/rag/interfaces"
	"ragstack/internal/rag/schema"
)

// DefaultTopK is the number of chunks retrieved per query when the caller
// does not ask for a specific amount.
const DefaultTopK = 4

// Retriever embeds a query and finds the most similar chunks in the
// tenant's index.
type Retriever struct {
	provider ai.Provider
	store    interfaces.VectorStore
	topK     int
}

// NewRetriever creates a Retriever. Non-positive topK falls back to
// DefaultTopK.
func NewRetriever(provider ai.Provider, store interfaces.VectorStore, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{
		provider: provider,
		store:    store,
		topK:     topK,
	}
}

// Retrieve returns up to k chunks of the tenant's index ordered by
// descending similarity to the query. k <= 0 uses the configured default.
// Fewer than k indexed chunks simply yield fewer results.
func (r *Retriever) Retrieve(ctx context.Context, tenantID, query string, k int) ([]*schema.Retrieved, error) {
	if k <= 0 {
		k = r.topK
	}

	vectors, err := r.provider.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", ErrEmbedding, err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: got %d vectors for the query", ErrEmbedding, len(vectors))
	}

	return r.store.Search(ctx, tenantID, vectors[0], k)
}
