package pipeline

import (
	"context"
	"fmt"

	"ragstack/internal/ai"
	"ragstack/internal/rag/interfaces"
	"ragstack/internal/rag/schema"
	"ragstack/pkg/logger"
)

// Indexer embeds chunks and writes them into the tenant's vector index.
type Indexer struct {
	log      *logger.Logger
	provider ai.Provider
	store    interfaces.VectorStore
}

// NewIndexer creates an Indexer.
func NewIndexer(provider ai.Provider, store interfaces.VectorStore, log *logger.Logger) *Indexer {
	return &Indexer{
		log:      log,
		provider: provider,
		store:    store,
	}
}

// Index stamps every chunk with the tenant and document ids, embeds all
// chunk texts in one batched call, writes the result into the tenant's
// index and returns the number of chunks written. An empty chunk list
// returns zero without calling the provider.
func (x *Indexer) Index(ctx context.Context, tenantID, documentID string, chunks []*schema.Document) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
		if chunk.Metadata == nil {
			chunk.Metadata = make(map[string]string)
		}
		chunk.Metadata[schema.MetadataKeyTenantID] = tenantID
		chunk.Metadata[schema.MetadataKeyDocumentID] = documentID
	}

	vectors, err := x.provider.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("%w: got %d vectors for %d chunks", ErrEmbedding, len(vectors), len(chunks))
	}
	for i, chunk := range chunks {
		chunk.Embedding = vectors[i]
	}

	if err := x.store.Upsert(ctx, tenantID, chunks); err != nil {
		return 0, err
	}

	x.log.WithTenant(tenantID).
		WithField("document_id", documentID).
		WithField("chunks", len(chunks)).
		Info("indexed document")
	return len(chunks), nil
}
