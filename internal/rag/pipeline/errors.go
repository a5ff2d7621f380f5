package pipeline

import "errors"

// Sentinel errors for pipeline stage failures. The API layer maps them to
// status codes with errors.Is.
var (
	// ErrEmbedding marks a failure of the embedding provider.
	ErrEmbedding = errors.New("embedding failed")
	// ErrChatProvider marks a failure of the chat provider.
	ErrChatProvider = errors.New("chat provider failed")
	// ErrRetrieval marks a failure to retrieve context for a query.
	ErrRetrieval = errors.New("retrieval failed")
)
