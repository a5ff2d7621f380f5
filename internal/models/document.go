package models

import "time"

// DocumentStatus describes where a document is in its ingestion lifecycle.
type DocumentStatus string

const (
	StatusUploaded DocumentStatus = "uploaded" // registered, not yet ingested
	StatusReady    DocumentStatus = "ready"    // fully indexed
	StatusFailed   DocumentStatus = "failed"   // ingestion failed, see ErrorReason
)

// Source kinds for a document.
const (
	SourceKindFile = "file" // bytes live in the blob store, SourceLocator is the object key
	SourceKindURL  = "url"  // SourceLocator is the URL to fetch
)

// Document is the metadata row for one ingestable unit. The ingestion
// pipeline reads ID, TenantID, SourceKind and SourceLocator, and writes
// back a terminal Status plus the indexed chunk count.
type Document struct {
	ID            string         `gorm:"primaryKey;size:36" json:"id"`
	TenantID      string         `gorm:"index;not null;size:64" json:"tenant_id"`
	FileName      string         `gorm:"size:255" json:"file_name"`
	SourceKind    string         `gorm:"size:8;not null" json:"source_kind"`
	SourceLocator string         `gorm:"size:1024;not null" json:"source_locator"`
	Status        DocumentStatus `gorm:"size:16;not null" json:"status"`
	ErrorReason   string         `gorm:"size:512" json:"error_reason,omitempty"`
	ChunkCount    int            `json:"chunk_count"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}
