package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"ragstack/internal/models"
	"ragstack/internal/rag/interfaces"
	"ragstack/internal/rag/loaders"
	"ragstack/internal/rag/schema"
	"ragstack/pkg/logger"
)

// ErrQueueFull is returned by Enqueue when the job queue has no room.
var ErrQueueFull = errors.New("ingestion queue is full")

// maxReasonLength bounds the persisted failure reason to the column size.
const maxReasonLength = 512

// DocumentStore is the slice of the metadata store the orchestrator needs.
type DocumentStore interface {
	GetByID(ctx context.Context, id string) (*models.Document, error)
	SetStatus(ctx context.Context, id string, status models.DocumentStatus, reason string, chunkCount int) error
}

// BlobStager downloads a stored file to a local path for the file loaders.
type BlobStager interface {
	Stage(ctx context.Context, key string) (path string, cleanup func(), err error)
}

// Indexer is the slice of the indexing pipeline the orchestrator needs.
type Indexer interface {
	Index(ctx context.Context, tenantID, documentID string, chunks []*schema.Document) (int, error)
}

// Orchestrator runs document ingestion in the background: a bounded job
// queue of document ids, drained by a fixed pool of workers. Every job ends
// in exactly one terminal status write, ready or failed; no intermediate
// state is ever persisted.
type Orchestrator struct {
	log      *logger.Logger
	docs     DocumentStore
	blobs    BlobStager
	files    *loaders.FileDispatcher
	web      interfaces.Loader
	splitter interfaces.Splitter
	indexer  Indexer

	jobs chan string
	eg   *errgroup.Group
}

// NewOrchestrator creates an Orchestrator with a queue of the given size.
func NewOrchestrator(
	docs DocumentStore,
	blobs BlobStager,
	files *loaders.FileDispatcher,
	web interfaces.Loader,
	splitter interfaces.Splitter,
	indexer Indexer,
	queueSize int,
	log *logger.Logger,
) *Orchestrator {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Orchestrator{
		log:      log,
		docs:     docs,
		blobs:    blobs,
		files:    files,
		web:      web,
		splitter: splitter,
		indexer:  indexer,
		jobs:     make(chan string, queueSize),
	}
}

// Start launches numWorkers background workers that drain the queue until
// ctx is cancelled.
func (o *Orchestrator) Start(ctx context.Context, numWorkers int) {
	if numWorkers <= 0 {
		numWorkers = 2
	}

	o.eg, ctx = errgroup.WithContext(ctx)
	for i := 0; i < numWorkers; i++ {
		worker := i
		o.eg.Go(func() error {
			log := o.log.WithField("worker", worker)
			log.Info("ingestion worker started")
			for {
				select {
				case <-ctx.Done():
					log.Info("ingestion worker stopped")
					return nil
				case docID := <-o.jobs:
					if _, err := o.ProcessOne(ctx, docID); err != nil {
						log.WithError(err).WithField("document_id", docID).Error("ingestion failed")
					}
				}
			}
		})
	}
}

// Wait blocks until all workers have stopped. Call after cancelling the
// context passed to Start.
func (o *Orchestrator) Wait() error {
	if o.eg == nil {
		return nil
	}
	return o.eg.Wait()
}

// Enqueue queues a document for background ingestion without blocking.
func (o *Orchestrator) Enqueue(docID string) error {
	select {
	case o.jobs <- docID:
		return nil
	default:
		return fmt.Errorf("%w: document %s", ErrQueueFull, docID)
	}
}

// statusWriteTimeout bounds the detached terminal status write.
const statusWriteTimeout = 10 * time.Second

// ProcessOne ingests a single document end to end and writes the terminal
// status. It is also called directly by tests and by synchronous re-ingest.
func (o *Orchestrator) ProcessOne(ctx context.Context, docID string) (int, error) {
	doc, err := o.docs.GetByID(ctx, docID)
	if err != nil {
		// Unknown document: nothing to write a status on.
		return 0, err
	}

	// The terminal status must land even when ctx itself caused the
	// failure (request cancelled, shutdown mid-ingest), so the write runs
	// on a detached context. Otherwise a cancelled ingest would leave the
	// document stuck at its pre-ingest status.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusWriteTimeout)
	defer cancel()

	count, err := o.run(ctx, doc)
	if err != nil {
		if serr := o.docs.SetStatus(writeCtx, doc.ID, models.StatusFailed, reason(err), 0); serr != nil {
			o.log.WithError(serr).WithField("document_id", doc.ID).Error("failed to persist failure status")
		}
		return 0, err
	}

	if err := o.docs.SetStatus(writeCtx, doc.ID, models.StatusReady, "", count); err != nil {
		return count, fmt.Errorf("persist ready status of document %s: %w", doc.ID, err)
	}
	return count, nil
}

// run executes load, split and index for one document.
func (o *Orchestrator) run(ctx context.Context, doc *models.Document) (int, error) {
	contents, err := o.load(ctx, doc)
	if err != nil {
		return 0, err
	}

	chunks, err := o.splitter.Split(ctx, contents)
	if err != nil {
		return 0, fmt.Errorf("split document %s: %w", doc.ID, err)
	}

	return o.indexer.Index(ctx, doc.TenantID, doc.ID, chunks)
}

// load extracts the document's text. URL sources go straight to the web
// loader; file sources are staged from the blob store to a temp file first.
func (o *Orchestrator) load(ctx context.Context, doc *models.Document) ([]*schema.Document, error) {
	if doc.SourceKind == models.SourceKindURL {
		return o.web.Load(ctx, doc.SourceLocator)
	}

	// Dispatch on the original file name; the locator is an object key
	// that ends with the same name.
	name := doc.FileName
	if name == "" {
		name = doc.SourceLocator
	}
	loader, err := o.files.ForPath(name)
	if err != nil {
		return nil, err
	}

	path, cleanup, err := o.blobs.Stage(ctx, doc.SourceLocator)
	if err != nil {
		return nil, fmt.Errorf("stage document %s: %w", doc.ID, err)
	}
	defer cleanup()

	docs, err := loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	// The loaders record the staged temp path; point provenance back at
	// the real source instead.
	for _, d := range docs {
		if d.Metadata == nil {
			d.Metadata = make(map[string]string)
		}
		d.Metadata[schema.MetadataKeySource] = doc.SourceLocator
		if doc.FileName != "" {
			d.Metadata[schema.MetadataKeyFileName] = doc.FileName
		}
	}
	return docs, nil
}

// reason renders an error as a bounded, persistable failure reason.
func reason(err error) string {
	msg := err.Error()
	if len(msg) > maxReasonLength {
		msg = msg[:maxReasonLength]
	}
	return msg
}
