package vectorstore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"ragstack/internal/config"
	"ragstack/internal/database/milvus"
	"ragstack/internal/rag/interfaces"
	"ragstack/internal/rag/schema"
	"ragstack/pkg/logger"
)

// Collection fields. One collection per tenant, all with the same schema.
const (
	FieldID         = "id"
	FieldDocumentID = "document_id"
	FieldSource     = "source"
	FieldText       = "text"
	FieldEmbedding  = "embedding"

	collectionPrefix = "tenant_"

	maxIDLength     = 64
	maxSourceLength = 512
	maxTextLength   = 65535

	searchNProbe = 10
)

// CollectionName maps a tenant id onto its Milvus collection name. Milvus
// only allows letters, digits and underscores in collection names, so any
// other character of the tenant id is mapped to an underscore.
func CollectionName(tenantID string) string {
	var sb strings.Builder
	sb.WriteString(collectionPrefix)
	for _, r := range tenantID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}

// MilvusStore implements VectorStore on Milvus with one collection per
// tenant. Collections are created lazily on first write and loaded before
// use; cross-tenant reads are impossible because every operation resolves
// its own tenant's collection name.
type MilvusStore struct {
	log    *logger.Logger
	client client.Client
	dim    int
	nlist  int

	mu      sync.Mutex
	ensured map[string]bool
}

// NewMilvusStore creates a store on top of the shared Milvus client.
func NewMilvusStore(milvusClient *milvus.MilvusClient, cfg *config.MilvusConfig, log *logger.Logger) (*MilvusStore, error) {
	if milvusClient == nil || milvusClient.Client == nil {
		return nil, fmt.Errorf("milvus client is not initialized")
	}
	return &MilvusStore{
		log:     log,
		client:  milvusClient.Client,
		dim:     cfg.EmbedDim,
		nlist:   cfg.IndexNlist,
		ensured: make(map[string]bool),
	}, nil
}

// ensureCollection creates and loads the tenant's collection if needed.
// The result is cached per process; HasCollection keeps the operation
// idempotent across processes.
func (s *MilvusStore) ensureCollection(ctx context.Context, collName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensured[collName] {
		return nil
	}

	exists, err := s.client.HasCollection(ctx, collName)
	if err != nil {
		return fmt.Errorf("check collection %q: %w", collName, err)
	}
	if !exists {
		collSchema := entity.NewSchema().
			WithName(collName).
			WithDescription("document chunks of one tenant").
			WithField(entity.NewField().WithName(FieldID).WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxIDLength).WithIsPrimaryKey(true)).
			WithField(entity.NewField().WithName(FieldDocumentID).WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxIDLength)).
			WithField(entity.NewField().WithName(FieldSource).WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxSourceLength)).
			WithField(entity.NewField().WithName(FieldText).WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxTextLength)).
			WithField(entity.NewField().WithName(FieldEmbedding).WithDataType(entity.FieldTypeFloatVector).WithDim(int64(s.dim)))

		if err := s.client.CreateCollection(ctx, collSchema, entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("create collection %q: %w", collName, err)
		}

		idx, err := entity.NewIndexIvfFlat(entity.L2, s.nlist)
		if err != nil {
			return fmt.Errorf("build index for %q: %w", collName, err)
		}
		if err := s.client.CreateIndex(ctx, collName, FieldEmbedding, idx, false); err != nil {
			return fmt.Errorf("create index for %q: %w", collName, err)
		}
		s.log.WithField("collection", collName).Info("created tenant collection")
	}

	if err := s.client.LoadCollection(ctx, collName, false); err != nil {
		return fmt.Errorf("load collection %q: %w", collName, err)
	}

	s.ensured[collName] = true
	return nil
}

// Upsert replaces the entries of the incoming chunks' documents and inserts
// the new chunks. Re-ingesting a document therefore never duplicates it.
func (s *MilvusStore) Upsert(ctx context.Context, tenantID string, docs []*schema.Document) error {
	if len(docs) == 0 {
		return nil
	}

	collName := CollectionName(tenantID)
	if err := s.ensureCollection(ctx, collName); err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrIndexWrite, err)
	}

	// Clear previous entries of every document in the batch first.
	seen := make(map[string]bool)
	for _, doc := range docs {
		docID := doc.Metadata[schema.MetadataKeyDocumentID]
		if docID == "" || seen[docID] {
			continue
		}
		seen[docID] = true
		if err := s.DeleteByDocument(ctx, tenantID, docID); err != nil {
			return err
		}
	}

	ids := make([]string, len(docs))
	documentIDs := make([]string, len(docs))
	sources := make([]string, len(docs))
	texts := make([]string, len(docs))
	embeddings := make([][]float32, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
		documentIDs[i] = doc.Metadata[schema.MetadataKeyDocumentID]
		sources[i] = doc.Metadata[schema.MetadataKeySource]
		texts[i] = doc.Text
		embeddings[i] = doc.Embedding
	}

	_, err := s.client.Insert(ctx, collName, "",
		entity.NewColumnVarChar(FieldID, ids),
		entity.NewColumnVarChar(FieldDocumentID, documentIDs),
		entity.NewColumnVarChar(FieldSource, sources),
		entity.NewColumnVarChar(FieldText, texts),
		entity.NewColumnFloatVector(FieldEmbedding, s.dim, embeddings),
	)
	if err != nil {
		return fmt.Errorf("%w: insert into %q: %v", interfaces.ErrIndexWrite, collName, err)
	}

	// Flush so the entries are searchable as soon as the document turns
	// ready.
	if err := s.client.Flush(ctx, collName, false); err != nil {
		return fmt.Errorf("%w: flush %q: %v", interfaces.ErrIndexWrite, collName, err)
	}

	s.log.WithTenant(tenantID).WithField("chunks", len(docs)).Debug("upserted chunks")
	return nil
}

// Search queries the tenant's collection. A tenant whose collection does
// not exist yet simply has nothing indexed, so the result is empty.
func (s *MilvusStore) Search(ctx context.Context, tenantID string, vector []float32, topK int) ([]*schema.Retrieved, error) {
	collName := CollectionName(tenantID)

	exists, err := s.client.HasCollection(ctx, collName)
	if err != nil {
		return nil, fmt.Errorf("%w: check collection %q: %v", interfaces.ErrIndexQuery, collName, err)
	}
	if !exists {
		return nil, nil
	}
	if err := s.ensureCollection(ctx, collName); err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrIndexQuery, err)
	}

	searchParams, err := entity.NewIndexIvfFlatSearchParam(searchNProbe)
	if err != nil {
		return nil, fmt.Errorf("%w: build search params: %v", interfaces.ErrIndexQuery, err)
	}

	outputFields := []string{FieldID, FieldDocumentID, FieldSource, FieldText}
	searchResults, err := s.client.Search(
		ctx, collName, []string{}, "", outputFields,
		[]entity.Vector{entity.FloatVector(vector)},
		FieldEmbedding, entity.L2, topK, searchParams,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: search %q: %v", interfaces.ErrIndexQuery, collName, err)
	}

	var results []*schema.Retrieved
	for _, res := range searchResults {
		idData := varCharData(res.Fields, FieldID)
		docIDData := varCharData(res.Fields, FieldDocumentID)
		sourceData := varCharData(res.Fields, FieldSource)
		textData := varCharData(res.Fields, FieldText)
		if idData == nil {
			continue
		}

		for i := 0; i < res.ResultCount; i++ {
			doc := &schema.Document{
				ID:       idData[i],
				Metadata: map[string]string{schema.MetadataKeyTenantID: tenantID},
			}
			if docIDData != nil {
				doc.Metadata[schema.MetadataKeyDocumentID] = docIDData[i]
			}
			if sourceData != nil {
				doc.Metadata[schema.MetadataKeySource] = sourceData[i]
			}
			if textData != nil {
				doc.Text = textData[i]
			}
			results = append(results, &schema.Retrieved{
				Document: doc,
				Score:    res.Scores[i],
			})
		}
	}
	return results, nil
}

// DeleteByDocument removes every entry of the document from the tenant's
// collection. Deleting from a tenant with no collection is a no-op.
func (s *MilvusStore) DeleteByDocument(ctx context.Context, tenantID, documentID string) error {
	collName := CollectionName(tenantID)

	exists, err := s.client.HasCollection(ctx, collName)
	if err != nil {
		return fmt.Errorf("%w: check collection %q: %v", interfaces.ErrIndexWrite, collName, err)
	}
	if !exists {
		return nil
	}

	expr := fmt.Sprintf(`%s == %q`, FieldDocumentID, documentID)
	if err := s.client.Delete(ctx, collName, "", expr); err != nil {
		return fmt.Errorf("%w: delete document %s from %q: %v", interfaces.ErrIndexWrite, documentID, collName, err)
	}
	return nil
}

// varCharData pulls the string column with the given name out of the result
// fields, or nil when absent.
func varCharData(fields []entity.Column, name string) []string {
	for _, field := range fields {
		if field.Name() != name {
			continue
		}
		if col, ok := field.(*entity.ColumnVarChar); ok {
			return col.Data()
		}
	}
	return nil
}

var _ interfaces.VectorStore = (*MilvusStore)(nil)
