package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ragstack/internal/ingest"
	"ragstack/internal/models"
	"ragstack/internal/rag/interfaces"
	"ragstack/internal/rag/loaders"
	"ragstack/internal/store"
	"ragstack/pkg/logger"
)

// Pagination bounds for the document listing.
const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// DocumentStore is the slice of the metadata store the handlers need.
type DocumentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	GetForTenant(ctx context.Context, tenantID, id string) (*models.Document, error)
	ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]models.Document, error)
	Delete(ctx context.Context, tenantID, id string) error
}

// BlobStore is the slice of the blob store the handlers need.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, key string) error
}

// Ingestor queues documents for background ingestion.
type Ingestor interface {
	Enqueue(docID string) error
}

var (
	_ DocumentStore = (*store.DocumentStore)(nil)
	_ BlobStore     = (*store.BlobStore)(nil)
	_ Ingestor      = (*ingest.Orchestrator)(nil)
)

// DocumentHandler serves the document management endpoints: upload,
// URL registration, listing, inspection, re-ingestion and deletion.
type DocumentHandler struct {
	log       *logger.Logger
	docs      DocumentStore
	blobs     BlobStore
	files     *loaders.FileDispatcher
	ingestor  Ingestor
	vectors   interfaces.VectorStore
	maxUpload int64
}

// NewDocumentHandler creates a DocumentHandler. maxUploadBytes bounds the
// accepted file size; non-positive disables the bound.
func NewDocumentHandler(docs DocumentStore, blobs BlobStore, files *loaders.FileDispatcher, ingestor Ingestor, vectors interfaces.VectorStore, maxUploadBytes int64, log *logger.Logger) *DocumentHandler {
	return &DocumentHandler{
		log:       log,
		docs:      docs,
		blobs:     blobs,
		files:     files,
		ingestor:  ingestor,
		vectors:   vectors,
		maxUpload: maxUploadBytes,
	}
}

// Upload accepts a multipart file, stores the bytes in the blob store,
// registers the document and queues it for ingestion. The response is the
// document row; ingestion runs in the background.
func (h *DocumentHandler) Upload(c *gin.Context) {
	tenantID := c.GetString(ContextTenantID)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}
	if !h.files.Supported(fileHeader.Filename) {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "unsupported document format"})
		return
	}
	if fileHeader.Size == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty file"})
		return
	}
	if h.maxUpload > 0 && fileHeader.Size > h.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds the upload size limit"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
		return
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
		return
	}
	if _, err := f.Seek(0, 0); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read upload"})
		return
	}

	doc := &models.Document{
		ID:         uuid.New().String(),
		TenantID:   tenantID,
		FileName:   fileHeader.Filename,
		SourceKind: models.SourceKindFile,
		Status:     models.StatusUploaded,
	}
	doc.SourceLocator = store.ObjectKey(tenantID, doc.ID, fileHeader.Filename)

	if err := h.blobs.Put(c.Request.Context(), doc.SourceLocator, f, fileHeader.Size, mtype.String()); err != nil {
		h.log.WithError(err).WithTenant(tenantID).Error("blob upload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store file"})
		return
	}
	if err := h.docs.Create(c.Request.Context(), doc); err != nil {
		h.log.WithError(err).WithTenant(tenantID).Error("document registration failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register document"})
		return
	}

	h.enqueue(c, doc)
}

type registerURLRequest struct {
	URL string `json:"url" binding:"required"`
}

// RegisterURL registers a web page for ingestion. The page is fetched by a
// background worker, not during this request.
func (h *DocumentHandler) RegisterURL(c *gin.Context) {
	tenantID := c.GetString(ContextTenantID)

	var req registerURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing url field"})
		return
	}
	if !strings.HasPrefix(req.URL, "http://") && !strings.HasPrefix(req.URL, "https://") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url must start with http:// or https://"})
		return
	}

	doc := &models.Document{
		ID:            uuid.New().String(),
		TenantID:      tenantID,
		SourceKind:    models.SourceKindURL,
		SourceLocator: req.URL,
		Status:        models.StatusUploaded,
	}
	if err := h.docs.Create(c.Request.Context(), doc); err != nil {
		h.log.WithError(err).WithTenant(tenantID).Error("document registration failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register document"})
		return
	}

	h.enqueue(c, doc)
}

// List returns a page of the caller's documents, newest first. Pagination
// uses the limit and offset query parameters.
func (h *DocumentHandler) List(c *gin.Context) {
	tenantID := c.GetString(ContextTenantID)
	limit, offset := pagination(c)

	docs, err := h.docs.ListByTenant(c.Request.Context(), tenantID, limit, offset)
	if err != nil {
		h.log.WithError(err).WithTenant(tenantID).Error("document listing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list documents"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"documents": docs,
		"limit":     limit,
		"offset":    offset,
	})
}

// Get returns one document of the caller's tenant. Documents of other
// tenants are indistinguishable from missing ones.
func (h *DocumentHandler) Get(c *gin.Context) {
	tenantID := c.GetString(ContextTenantID)

	doc, err := h.docs.GetForTenant(c.Request.Context(), tenantID, c.Param("id"))
	if errors.Is(err, store.ErrDocumentNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}
	if err != nil {
		h.log.WithError(err).WithTenant(tenantID).Error("document lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load document"})
		return
	}
	c.JSON(http.StatusOK, doc)
}

// Reingest queues an existing document for another ingestion run. The
// index entries of the previous run are replaced, not duplicated.
func (h *DocumentHandler) Reingest(c *gin.Context) {
	tenantID := c.GetString(ContextTenantID)

	doc, err := h.docs.GetForTenant(c.Request.Context(), tenantID, c.Param("id"))
	if errors.Is(err, store.ErrDocumentNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}
	if err != nil {
		h.log.WithError(err).WithTenant(tenantID).Error("document lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load document"})
		return
	}

	h.enqueue(c, doc)
}

// Delete removes a document entirely: its index entries, its stored bytes
// and its metadata row.
func (h *DocumentHandler) Delete(c *gin.Context) {
	tenantID := c.GetString(ContextTenantID)

	doc, err := h.docs.GetForTenant(c.Request.Context(), tenantID, c.Param("id"))
	if errors.Is(err, store.ErrDocumentNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}
	if err != nil {
		h.log.WithError(err).WithTenant(tenantID).Error("document lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load document"})
		return
	}

	if err := h.vectors.DeleteByDocument(c.Request.Context(), tenantID, doc.ID); err != nil {
		h.log.WithError(err).WithTenant(tenantID).Error("index cleanup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove index entries"})
		return
	}
	if doc.SourceKind == models.SourceKindFile {
		// A leftover blob is harmless next to leftover index entries, so a
		// failure here does not abort the deletion.
		if err := h.blobs.Remove(c.Request.Context(), doc.SourceLocator); err != nil {
			h.log.WithError(err).WithTenant(tenantID).Warn("blob cleanup failed")
		}
	}
	if err := h.docs.Delete(c.Request.Context(), tenantID, doc.ID); err != nil {
		h.log.WithError(err).WithTenant(tenantID).Error("document deletion failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete document"})
		return
	}

	c.Status(http.StatusNoContent)
}

// enqueue hands the document to the background workers and writes the
// accepted response.
func (h *DocumentHandler) enqueue(c *gin.Context, doc *models.Document) {
	if err := h.ingestor.Enqueue(doc.ID); err != nil {
		h.log.WithError(err).WithTenant(doc.TenantID).Warn("ingestion queue rejected document")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ingestion queue is full, retry later"})
		return
	}
	c.JSON(http.StatusAccepted, doc)
}

// pagination parses the limit and offset query parameters, bounding the
// limit to keep one response from dragging a tenant's whole corpus along.
func pagination(c *gin.Context) (limit, offset int) {
	limit = defaultListLimit
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
