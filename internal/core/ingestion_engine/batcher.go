package ingestion_engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"google.golang.org/api/googleapi"

	"github.com/markdave123-py/vectora/internal/core"
	"github.com/markdave123-py/vectora/internal/core/retry"
	"github.com/markdave123-py/vectora/internal/models"
)

// Batcher embeds content units in fixed-size batches with bounded concurrency
// and upserts the resulting vector records.
type Batcher struct {
	store    core.VectorStore
	embedder core.EmbeddingProvider
	cfg      *IngestConfig
	policy   retry.Policy
}

func NewBatcher(store core.VectorStore, embedder core.EmbeddingProvider, cfg *IngestConfig) *Batcher {
	return &Batcher{
		store:    store,
		embedder: embedder,
		cfg:      cfg,
		policy:   retry.DefaultPolicy(IsTransient),
	}
}

// EmbedAndUpsert partitions units into batches and processes them with at
// most MaxInFlight batches in flight. When forceReload is set, all prior
// vectors for the fingerprint are deleted first, so the store never holds two
// generations of one document.
//
// Batches complete in any order; the first unrecoverable failure stops new
// admissions, in-flight batches are awaited, and the whole ingestion fails.
func (b *Batcher) EmbedAndUpsert(ctx context.Context, units []models.ContentUnit, fileHash string, forceReload bool) error {
	if len(units) == 0 {
		return nil
	}

	if forceReload {
		if err := b.store.DeleteByFingerprint(ctx, fileHash); err != nil {
			return fmt.Errorf("delete prior vectors for %s: %w", fileHash, err)
		}
		log.Printf("Batcher: force reload, deleted prior vectors for %s", fileHash)
	}

	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(b.cfg.MaxInFlight))

	for start := 0; start < len(units); start += b.cfg.BatchSize {
		end := start + b.cfg.BatchSize
		if end > len(units) {
			end = len(units)
		}
		batch := units[start:end]

		// Acquire fails once gctx is cancelled by a failed batch, so no new
		// work is admitted after the first unrecoverable error.
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			return b.processBatch(gctx, batch)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("embed document %s: %w", fileHash, err)
	}
	return nil
}

// processBatch embeds one batch and upserts it. The batch only counts as
// durable after the store acknowledges the write.
func (b *Batcher) processBatch(ctx context.Context, batch []models.ContentUnit) error {
	texts := make([]string, len(batch))
	for i := range batch {
		texts[i] = normalizeForEmbedding(batch[i].TextContent)
	}

	var vecs [][]float32
	err := b.policy.Do(ctx, func(ctx context.Context) error {
		v, err := b.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return err
		}
		vecs = v
		return nil
	})
	if err != nil {
		// Only a transient-class failure (retry budget exhausted) is an
		// infrastructure error; a permanent rejection of the content is not
		// something the caller should retry.
		if IsTransient(err) {
			return fmt.Errorf("embed batch of %d: %w: %w", len(batch), core.ErrInfrastructure, err)
		}
		return fmt.Errorf("embed batch of %d: %w", len(batch), err)
	}
	if len(vecs) != len(batch) {
		return fmt.Errorf("embed batch: got %d vectors for %d texts", len(vecs), len(batch))
	}

	records := make([]models.VectorRecord, len(batch))
	for i, unit := range batch {
		if len(vecs[i]) != b.cfg.EmbedDim {
			return fmt.Errorf("unit %s: got dimension %d, collection expects %d: %w",
				unit.ID, len(vecs[i]), b.cfg.EmbedDim, core.ErrDimensionMismatch)
		}
		records[i] = models.VectorRecord{
			ID:     unit.ID,
			Vector: vecs[i],
			Payload: models.RecordPayload{
				ContentType:   string(unit.ContentType),
				Text:          unit.TextContent,
				Page:          unit.Metadata.Page,
				Section:       unit.Metadata.Section,
				RelatedImages: unit.Metadata.RelatedImages,
				FileHash:      unit.Metadata.FileHash,
			},
		}
	}

	if err := b.store.Upsert(ctx, records); err != nil {
		return fmt.Errorf("upsert batch of %d: %w: %w", len(records), core.ErrInfrastructure, err)
	}
	return nil
}

// normalizeForEmbedding collapses embedded newlines; embedding providers
// score single-line inputs more consistently.
func normalizeForEmbedding(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// IsTransient classifies errors worth retrying: rate limiting, provider-side
// failures and network timeouts. Everything else fails fast.
func IsTransient(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 429, 500, 502, 503, 504:
			return true
		}
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, core.ErrInfrastructure)
}
