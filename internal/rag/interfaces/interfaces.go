package interfaces

import (
	"context"
	"errors"

	"ragstack/internal/rag/schema"
)

// Sentinel errors surfaced by vector index implementations. Callers classify
// failures with errors.Is instead of matching on concrete store types.
var (
	// ErrIndexWrite marks a failure to write entries into the vector index.
	ErrIndexWrite = errors.New("vector index write failed")
	// ErrIndexQuery marks a failure to query the vector index.
	ErrIndexQuery = errors.New("vector index query failed")
)

// Loader extracts plain text from one source locator (a local file path or
// a URL) and returns it as one or more documents with provenance metadata.
type Loader interface {
	Load(ctx context.Context, locator string) ([]*schema.Document, error)
}

// Splitter cuts documents into chunks bounded by a configured size.
// Splitting is pure text work and must be deterministic.
type Splitter interface {
	Split(ctx context.Context, docs []*schema.Document) ([]*schema.Document, error)
}

// VectorStore is a tenant-scoped vector index. Every method takes the tenant
// id explicitly; implementations must guarantee that entries written for one
// tenant are never visible to another.
type VectorStore interface {
	// Upsert writes the embedded chunks for the given tenant. Entries that
	// belong to the same document ids as the incoming chunks are replaced,
	// not duplicated.
	Upsert(ctx context.Context, tenantID string, docs []*schema.Document) error

	// Search returns up to topK entries of the tenant's index ordered by
	// descending similarity to the query vector.
	Search(ctx context.Context, tenantID string, vector []float32, topK int) ([]*schema.Retrieved, error)

	// DeleteByDocument removes every entry of the given document from the
	// tenant's index.
	DeleteByDocument(ctx context.Context, tenantID, documentID string) error
}
