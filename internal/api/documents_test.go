package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"ragstack/internal/models"
	"ragstack/internal/rag/loaders"
	"ragstack/internal/rag/schema"
	"ragstack/internal/store"
	"ragstack/pkg/logger"
)

type fakeDocStore struct {
	docs       map[string]*models.Document
	created    []*models.Document
	deleted    []string
	lastLimit  int
	lastOffset int
}

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{docs: make(map[string]*models.Document)}
}

func (f *fakeDocStore) Create(ctx context.Context, doc *models.Document) error {
	f.created = append(f.created, doc)
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeDocStore) GetForTenant(ctx context.Context, tenantID, id string) (*models.Document, error) {
	doc, ok := f.docs[id]
	if !ok || doc.TenantID != tenantID {
		return nil, fmt.Errorf("%w: %s", store.ErrDocumentNotFound, id)
	}
	return doc, nil
}

func (f *fakeDocStore) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]models.Document, error) {
	f.lastLimit = limit
	f.lastOffset = offset
	return nil, nil
}

func (f *fakeDocStore) Delete(ctx context.Context, tenantID, id string) error {
	if _, ok := f.docs[id]; !ok {
		return fmt.Errorf("%w: %s", store.ErrDocumentNotFound, id)
	}
	delete(f.docs, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeBlobs struct {
	put     []string
	removed []string
}

func (f *fakeBlobs) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	f.put = append(f.put, key)
	return nil
}

func (f *fakeBlobs) Remove(ctx context.Context, key string) error {
	f.removed = append(f.removed, key)
	return nil
}

type fakeIngestor struct {
	enqueued []string
	err      error
}

func (f *fakeIngestor) Enqueue(docID string) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, docID)
	return nil
}

type fakeVectors struct {
	deleted []string
}

func (f *fakeVectors) Upsert(ctx context.Context, tenantID string, docs []*schema.Document) error {
	return nil
}

func (f *fakeVectors) Search(ctx context.Context, tenantID string, vector []float32, topK int) ([]*schema.Retrieved, error) {
	return nil, nil
}

func (f *fakeVectors) DeleteByDocument(ctx context.Context, tenantID, documentID string) error {
	f.deleted = append(f.deleted, tenantID+"/"+documentID)
	return nil
}

type handlerFixture struct {
	docs    *fakeDocStore
	blobs   *fakeBlobs
	queue   *fakeIngestor
	vectors *fakeVectors
	router  *gin.Engine
}

func newHandlerFixture(maxUpload int64) *handlerFixture {
	gin.SetMode(gin.TestMode)

	fx := &handlerFixture{
		docs:    newFakeDocStore(),
		blobs:   &fakeBlobs{},
		queue:   &fakeIngestor{},
		vectors: &fakeVectors{},
	}
	h := NewDocumentHandler(fx.docs, fx.blobs, loaders.NewFileDispatcher(), fx.queue, fx.vectors, maxUpload, logger.New("test"))

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(ContextTenantID, "t1")
		c.Set(ContextRole, RoleEditor)
	})
	r.POST("/documents", h.Upload)
	r.GET("/documents", h.List)
	r.DELETE("/documents/:id", h.Delete)
	fx.router = r
	return fx
}

func multipartBody(t *testing.T, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	w.Close()
	return &buf, w.FormDataContentType()
}

func TestUploadDocument(t *testing.T) {
	fx := newHandlerFixture(1 << 20)

	body, contentType := multipartBody(t, "notes.txt", "some notes")
	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	if len(fx.docs.created) != 1 {
		t.Fatalf("expected 1 created document, got %d", len(fx.docs.created))
	}
	doc := fx.docs.created[0]
	if doc.TenantID != "t1" || doc.Status != models.StatusUploaded {
		t.Errorf("unexpected document row: %+v", doc)
	}
	if len(fx.blobs.put) != 1 || !strings.HasPrefix(fx.blobs.put[0], "t1/") {
		t.Errorf("blob not stored under the tenant prefix: %v", fx.blobs.put)
	}
	if len(fx.queue.enqueued) != 1 || fx.queue.enqueued[0] != doc.ID {
		t.Errorf("document not queued for ingestion: %v", fx.queue.enqueued)
	}
}

func TestUploadRejectsEmptyFile(t *testing.T) {
	fx := newHandlerFixture(1 << 20)

	body, contentType := multipartBody(t, "notes.txt", "")
	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an empty file, got %d", w.Code)
	}
	if len(fx.blobs.put) != 0 {
		t.Errorf("empty file must not reach the blob store")
	}
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	fx := newHandlerFixture(16)

	body, contentType := multipartBody(t, "notes.txt", strings.Repeat("x", 64))
	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for an oversized file, got %d", w.Code)
	}
	if len(fx.blobs.put) != 0 {
		t.Errorf("oversized file must not reach the blob store")
	}
}

func TestUploadRejectsUnsupportedFormat(t *testing.T) {
	fx := newHandlerFixture(1 << 20)

	body, contentType := multipartBody(t, "binary.exe", "MZ")
	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", w.Code)
	}
}

func TestListPagination(t *testing.T) {
	fx := newHandlerFixture(1 << 20)

	req := httptest.NewRequest(http.MethodGet, "/documents?limit=5&offset=10", nil)
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if fx.docs.lastLimit != 5 || fx.docs.lastOffset != 10 {
		t.Errorf("pagination not forwarded: limit=%d offset=%d", fx.docs.lastLimit, fx.docs.lastOffset)
	}

	req = httptest.NewRequest(http.MethodGet, "/documents?limit=100000", nil)
	fx.router.ServeHTTP(httptest.NewRecorder(), req)
	if fx.docs.lastLimit != maxListLimit {
		t.Errorf("limit not bounded, got %d", fx.docs.lastLimit)
	}

	req = httptest.NewRequest(http.MethodGet, "/documents", nil)
	fx.router.ServeHTTP(httptest.NewRecorder(), req)
	if fx.docs.lastLimit != defaultListLimit || fx.docs.lastOffset != 0 {
		t.Errorf("defaults not applied: limit=%d offset=%d", fx.docs.lastLimit, fx.docs.lastOffset)
	}
}

func TestDeleteDocument(t *testing.T) {
	fx := newHandlerFixture(1 << 20)
	fx.docs.docs["d1"] = &models.Document{
		ID:            "d1",
		TenantID:      "t1",
		FileName:      "report.txt",
		SourceKind:    models.SourceKindFile,
		SourceLocator: "t1/d1/report.txt",
		Status:        models.StatusReady,
	}

	req := httptest.NewRequest(http.MethodDelete, "/documents/d1", nil)
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}
	if len(fx.vectors.deleted) != 1 || fx.vectors.deleted[0] != "t1/d1" {
		t.Errorf("index entries not purged: %v", fx.vectors.deleted)
	}
	if len(fx.blobs.removed) != 1 || fx.blobs.removed[0] != "t1/d1/report.txt" {
		t.Errorf("blob not removed: %v", fx.blobs.removed)
	}
	if len(fx.docs.deleted) != 1 || fx.docs.deleted[0] != "d1" {
		t.Errorf("metadata row not deleted: %v", fx.docs.deleted)
	}
}

func TestDeleteUnknownDocument(t *testing.T) {
	fx := newHandlerFixture(1 << 20)

	req := httptest.NewRequest(http.MethodDelete, "/documents/missing", nil)
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if len(fx.vectors.deleted) != 0 {
		t.Errorf("unknown document must not trigger index cleanup")
	}
}

func TestUploadQueueFull(t *testing.T) {
	fx := newHandlerFixture(1 << 20)
	fx.queue.err = fmt.Errorf("queue full")

	body, contentType := multipartBody(t, "notes.txt", "some notes")
	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when the queue is full, got %d", w.Code)
	}
}
