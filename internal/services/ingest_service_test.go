package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/vectora/internal/core"
	"github.com/markdave123-py/vectora/internal/core/ingestion_engine"
	"github.com/markdave123-py/vectora/internal/models"
)

func newIngestFixture(t *testing.T, elements []models.RawElement) (*IngestService, *memStore, *countingEmbedder) {
	t.Helper()
	store := newMemStore()
	emb := &countingEmbedder{dim: 4}
	obj := &fakeObjectClient{
		objects: map[string][]byte{"docs/report.pdf": []byte("%PDF-1.7 report body")},
		urls:    map[string][]byte{"https://example.com/doc.pdf": []byte("%PDF-1.7 remote body")},
	}
	part := &scriptedPartitioner{elements: elements}
	batcher := ingestion_engine.NewBatcher(store, emb, &ingestion_engine.IngestConfig{
		BatchSize: 50, MaxInFlight: 2, EmbedDim: 4,
	})
	return NewIngestService(store, obj, part, batcher), store, emb
}

func twoPageElements() []models.RawElement {
	return []models.RawElement{
		{Kind: models.ElementTitle, Text: "RELATED WORK", Page: 1},
		{Kind: models.ElementNarrativeText, Text: "a paragraph of narrative text under the heading", Page: 1},
		{Kind: models.ElementTable, Text: "metric value rows", HTML: "<table><tr><td>latency</td><td>12ms</td></tr></table>", Page: 1},
		{Kind: models.ElementImage, Page: 2},
	}
}

func TestProcessDocument_TwoPageDocument(t *testing.T) {
	svc, store, emb := newIngestFixture(t, twoPageElements())

	res, err := svc.ProcessDocument(context.Background(), "docs/report.pdf", "", false)
	require.NoError(t, err)

	assert.Equal(t, StatusProcessed, res.Status)
	assert.Len(t, res.FileHash, 64, "fingerprint is a hex sha-256 digest")
	// Heading is consumed as section context, so three units remain.
	assert.Len(t, res.ContentIDs, 3)
	assert.Contains(t, res.ContentIDs, "img_2_1")
	assert.Equal(t, 1, emb.callCount())

	for _, id := range res.ContentIDs {
		rec, ok := store.records[id]
		require.True(t, ok, "id %s must be stored", id)
		assert.Equal(t, res.FileHash, rec.Payload.FileHash)
	}
	text := store.records[res.ContentIDs[0]]
	assert.Equal(t, "RELATED WORK", text.Payload.Section)
}

func TestProcessDocument_ResubmitIsIdempotent(t *testing.T) {
	svc, _, emb := newIngestFixture(t, twoPageElements())

	first, err := svc.ProcessDocument(context.Background(), "docs/report.pdf", "", false)
	require.NoError(t, err)
	require.Equal(t, StatusProcessed, first.Status)
	callsAfterFirst := emb.callCount()

	second, err := svc.ProcessDocument(context.Background(), "docs/report.pdf", "", false)
	require.NoError(t, err)

	assert.Equal(t, StatusAlreadyProcessed, second.Status)
	assert.Equal(t, first.FileHash, second.FileHash)
	assert.ElementsMatch(t, first.ContentIDs, second.ContentIDs)
	assert.Equal(t, callsAfterFirst, emb.callCount(), "resubmission must not embed anything")
}

func TestProcessDocument_ForceReloadReembeds(t *testing.T) {
	svc, store, emb := newIngestFixture(t, twoPageElements())

	first, err := svc.ProcessDocument(context.Background(), "docs/report.pdf", "", false)
	require.NoError(t, err)

	second, err := svc.ProcessDocument(context.Background(), "docs/report.pdf", "", true)
	require.NoError(t, err)

	assert.Equal(t, StatusProcessed, second.Status)
	assert.Equal(t, 2, emb.callCount())
	// Prior generation for this fingerprint is replaced, not accumulated.
	ids, err := store.ExistsByFingerprint(context.Background(), first.FileHash)
	require.NoError(t, err)
	assert.Len(t, ids, 3)
}

func TestProcessDocument_URLSource(t *testing.T) {
	svc, _, _ := newIngestFixture(t, twoPageElements())

	res, err := svc.ProcessDocument(context.Background(), "", "https://example.com/doc.pdf", false)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessed, res.Status)
}

func TestProcessDocument_NoSource(t *testing.T) {
	svc, _, emb := newIngestFixture(t, twoPageElements())

	_, err := svc.ProcessDocument(context.Background(), "", "", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNoSource)
	assert.Zero(t, emb.callCount())
}

func TestProcessDocument_ExtractionFailure(t *testing.T) {
	svc, _, emb := newIngestFixture(t, nil)

	_, err := svc.ProcessDocument(context.Background(), "docs/report.pdf", "", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNoExtractableContent)
	assert.Zero(t, emb.callCount())
}

func TestProcessDocument_AllContentFilteredIsEmpty(t *testing.T) {
	svc, _, emb := newIngestFixture(t, []models.RawElement{
		{Kind: models.ElementNarrativeText, Text: "tiny", Page: 1},
	})

	res, err := svc.ProcessDocument(context.Background(), "docs/report.pdf", "", false)
	require.NoError(t, err)

	assert.Equal(t, StatusEmpty, res.Status)
	assert.Empty(t, res.ContentIDs)
	assert.Zero(t, emb.callCount())
}

func TestProcessDocument_ExistenceCheckFailure(t *testing.T) {
	svc, store, _ := newIngestFixture(t, twoPageElements())
	store.existsErr = errors.New("connection reset")

	_, err := svc.ProcessDocument(context.Background(), "docs/report.pdf", "", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInfrastructure)
}
