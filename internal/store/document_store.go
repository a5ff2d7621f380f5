package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"ragstack/internal/models"
)

// ErrDocumentNotFound is returned when a document id does not exist or does
// not belong to the requesting tenant.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentStore persists document metadata rows in MySQL.
type DocumentStore struct {
	db *gorm.DB
}

// NewDocumentStore creates a DocumentStore on the given database handle.
func NewDocumentStore(db *gorm.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// AutoMigrate creates or updates the documents table.
func (s *DocumentStore) AutoMigrate() error {
	return s.db.AutoMigrate(&models.Document{})
}

// Create inserts a new document row.
func (s *DocumentStore) Create(ctx context.Context, doc *models.Document) error {
	if err := s.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// GetByID fetches a document by id regardless of tenant. Used by the
// ingestion workers, which receive trusted ids.
func (s *DocumentStore) GetByID(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	err := s.db.WithContext(ctx).First(&doc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	return &doc, nil
}

// GetForTenant fetches a document by id scoped to one tenant. Ids of other
// tenants behave exactly like unknown ids.
func (s *DocumentStore) GetForTenant(ctx context.Context, tenantID, id string) (*models.Document, error) {
	var doc models.Document
	err := s.db.WithContext(ctx).First(&doc, "id = ? AND tenant_id = ?", id, tenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	return &doc, nil
}

// ListByTenant returns a page of one tenant's documents, newest first.
// Non-positive limit disables the limit; negative offset is treated as 0.
func (s *DocumentStore) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]models.Document, error) {
	q := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}

	var docs []models.Document
	if err := q.Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list documents of tenant %s: %w", tenantID, err)
	}
	return docs, nil
}

// Delete removes a document row scoped to one tenant. Unknown ids and ids
// of other tenants both return ErrDocumentNotFound.
func (s *DocumentStore) Delete(ctx context.Context, tenantID, id string) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(&models.Document{})
	if res.Error != nil {
		return fmt.Errorf("delete document %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	return nil
}

// SetStatus writes a terminal ingestion outcome: status, failure reason and
// chunk count in one update.
func (s *DocumentStore) SetStatus(ctx context.Context, id string, status models.DocumentStatus, reason string, chunkCount int) error {
	err := s.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       status,
			"error_reason": reason,
			"chunk_count":  chunkCount,
		}).Error
	if err != nil {
		return fmt.Errorf("update status of document %s: %w", id, err)
	}
	return nil
}
