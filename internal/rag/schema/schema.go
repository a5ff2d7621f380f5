package schema

// Metadata keys shared across the pipeline. Tenant and document ids are
// stamped onto every chunk at indexing time and travel with the entry into
// the vector index.
const (
	// MetadataKeyTenantID scopes an entry to one tenant. It is set from the
	// authenticated tenant id and never inferred from content.
	MetadataKeyTenantID = "tenant_id"
	// MetadataKeyDocumentID links an entry back to its document row.
	MetadataKeyDocumentID = "document_id"
	// MetadataKeySource is the original locator (file path or URL).
	MetadataKeySource = "source"
	// MetadataKeyFileName is the base name of the source file.
	MetadataKeyFileName = "file_name"
	// MetadataKeyPageLabel is the page number or sheet name within the
	// source document.
	MetadataKeyPageLabel = "page_label"
)

// Document is the central data carrier of the pipeline: loaders produce
// them, the splitter cuts them into chunk-sized ones, the indexer embeds
// and stores them, and retrieval returns them.
type Document struct {
	// ID is the unique identifier of this piece of content.
	ID string

	// Text is the plain text content.
	Text string

	// Embedding is the vector representation of Text. Empty until the
	// indexer has run.
	Embedding []float32

	// Metadata carries provenance and tenancy information.
	Metadata map[string]string
}

// Retrieved is a document returned from a similarity search together with
// its score. Results are ordered by descending similarity.
type Retrieved struct {
	Document *Document
	Score    float32
}

// CopyMetadata returns a copy of md, or an empty map when md is nil.
// Chunks must never share a metadata map with their source document.
func CopyMetadata(md map[string]string) map[string]string {
	out := make(map[string]string, len(md))
	for k, v := range md {
		out[k] = v
	}
	return out
}
