package services

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/vectora/internal/core"
	"github.com/markdave123-py/vectora/internal/core/ingestion_engine"
	"github.com/markdave123-py/vectora/internal/models"
)

type IngestStatus string

const (
	// StatusProcessed: the document was structured, embedded and stored.
	StatusProcessed IngestStatus = "processed"
	// StatusAlreadyProcessed: byte-identical content was ingested before;
	// nothing was embedded or written.
	StatusAlreadyProcessed IngestStatus = "already_processed"
	// StatusEmpty: the document parsed fine but yielded nothing embeddable.
	StatusEmpty IngestStatus = "empty"
)

// IngestResult reports one ingestion: its status, the document fingerprint
// and the ids of the stored (or previously stored) content units.
type IngestResult struct {
	Status     IngestStatus `json:"status"`
	FileHash   string       `json:"file_hash"`
	ContentIDs []string     `json:"content_ids"`
}

// IngestService owns the write path: resolve the source, fingerprint and
// partition in parallel, structure, dedupe, then embed and upsert.
type IngestService struct {
	store       core.VectorStore
	obj         core.ObjectClient
	partitioner core.Partitioner
	batcher     *ingestion_engine.Batcher
}

func NewIngestService(store core.VectorStore, obj core.ObjectClient, partitioner core.Partitioner, batcher *ingestion_engine.Batcher) *IngestService {
	return &IngestService{store: store, obj: obj, partitioner: partitioner, batcher: batcher}
}

// ProcessDocument ingests one document referenced by a storage key or a
// public URL. With forceReload=false, re-ingesting byte-identical content is
// a no-op that returns the existing ids without any embedding calls.
func (s *IngestService) ProcessDocument(ctx context.Context, storageKey, sourceURL string, forceReload bool) (*IngestResult, error) {
	doc, err := s.resolveSource(ctx, storageKey, sourceURL)
	if err != nil {
		return nil, err
	}

	// Hashing and partitioning are independent; overlap them.
	var (
		fileHash string
		elements []models.RawElement
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fileHash, err = ingestion_engine.Fingerprint(bytes.NewReader(doc))
		return err
	})
	g.Go(func() error {
		var err error
		elements, err = s.partitioner.Partition(gctx, doc)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("prepare document: %w", err)
	}

	units, err := ingestion_engine.Structure(elements, fileHash)
	if err != nil {
		return nil, err
	}

	if !forceReload {
		existing, err := s.store.ExistsByFingerprint(ctx, fileHash)
		if err != nil {
			return nil, fmt.Errorf("existence check for %s: %w: %w", fileHash, core.ErrInfrastructure, err)
		}
		if len(existing) > 0 {
			log.Printf("IngestService: document %s already processed (%d units)", fileHash, len(existing))
			return &IngestResult{
				Status:     StatusAlreadyProcessed,
				FileHash:   fileHash,
				ContentIDs: existing,
			}, nil
		}
	}

	if len(units) == 0 {
		log.Printf("IngestService: document %s parsed but produced no embeddable content", fileHash)
		return &IngestResult{Status: StatusEmpty, FileHash: fileHash, ContentIDs: []string{}}, nil
	}

	if err := s.batcher.EmbedAndUpsert(ctx, units, fileHash, forceReload); err != nil {
		return nil, err
	}

	ids := make([]string, len(units))
	for i := range units {
		ids[i] = units[i].ID
	}
	log.Printf("IngestService: document %s processed, %d units stored", fileHash, len(ids))
	return &IngestResult{Status: StatusProcessed, FileHash: fileHash, ContentIDs: ids}, nil
}

// resolveSource fetches the document bytes from object storage or a public
// URL. Exactly one source must be named; the key wins if both are.
func (s *IngestService) resolveSource(ctx context.Context, storageKey, sourceURL string) ([]byte, error) {
	switch {
	case storageKey != "":
		return s.obj.DownloadFile(ctx, storageKey)
	case sourceURL != "":
		return s.obj.DownloadURL(ctx, sourceURL)
	default:
		return nil, core.ErrNoSource
	}
}
