package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
)

// BlobStore keeps uploaded file bytes in a MinIO bucket. Object keys are
// prefixed with the tenant id so one tenant's blobs never collide with
// another's.
type BlobStore struct {
	client *minio.Client
	bucket string
}

// NewBlobStore creates a BlobStore and makes sure the bucket exists.
func NewBlobStore(ctx context.Context, client *minio.Client, bucket string) (*BlobStore, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %q: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", bucket, err)
		}
	}
	return &BlobStore{client: client, bucket: bucket}, nil
}

// ObjectKey builds the object key for a document's file.
func ObjectKey(tenantID, documentID, fileName string) string {
	return fmt.Sprintf("%s/%s/%s", tenantID, documentID, fileName)
}

// Put streams an uploaded file into the bucket.
func (s *BlobStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	return nil
}

// Remove deletes an object from the bucket.
func (s *BlobStore) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %q: %w", key, err)
	}
	return nil
}

// Stage downloads an object into a temp file for the file loaders, which
// work on local paths. The temp file keeps the object's extension so the
// loader dispatch still works on the staged copy. The caller must invoke
// cleanup when done.
func (s *BlobStore) Stage(ctx context.Context, key string) (string, func(), error) {
	tmp, err := os.CreateTemp("", "ingest-*"+filepath.Ext(key))
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	path := tmp.Name()
	tmp.Close()

	if err := s.client.FGetObject(ctx, s.bucket, key, path, minio.GetObjectOptions{}); err != nil {
		os.Remove(path)
		return "", nil, fmt.Errorf("fetch object %q: %w", key, err)
	}

	return path, func() { os.Remove(path) }, nil
}
