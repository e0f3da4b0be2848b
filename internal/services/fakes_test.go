package services

import (
	"context"
	"errors"
	"io"
	"math"
	"sort"
	"sync"

	"github.com/markdave123-py/vectora/internal/models"
)

// memStore is an in-memory vector store with real cosine scoring, shared by
// the ingest and search service tests.
type memStore struct {
	mu        sync.Mutex
	records   map[string]models.VectorRecord
	order     []string // insertion order, for stable assertions
	existsErr error
	searchErr error
}

func newMemStore() *memStore {
	return &memStore{records: map[string]models.VectorRecord{}}
}

func (s *memStore) EnsureCollection(ctx context.Context, dim int) error { return nil }

func (s *memStore) ExistsByFingerprint(ctx context.Context, fileHash string) ([]string, error) {
	if s.existsErr != nil {
		return nil, s.existsErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for _, id := range s.order {
		if s.records[id].Payload.FileHash == fileHash {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *memStore) DeleteByFingerprint(ctx context.Context, fileHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.order[:0]
	for _, id := range s.order {
		if s.records[id].Payload.FileHash == fileHash {
			delete(s.records, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return nil
}

func (s *memStore) Upsert(ctx context.Context, records []models.VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		if _, ok := s.records[rec.ID]; !ok {
			s.order = append(s.order, rec.ID)
		}
		s.records[rec.ID] = rec
	}
	return nil
}

func (s *memStore) Search(ctx context.Context, vector []float32, limit int, fileHash string) ([]models.SearchHit, error) {
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var hits []models.SearchHit
	for _, id := range s.order {
		rec := s.records[id]
		if fileHash != "" && rec.Payload.FileHash != fileHash {
			continue
		}
		hits = append(hits, models.SearchHit{
			ID:            rec.ID,
			Score:         cosine(vector, rec.Vector),
			ContentType:   rec.Payload.ContentType,
			Text:          rec.Payload.Text,
			Page:          rec.Payload.Page,
			Section:       rec.Payload.Section,
			RelatedImages: rec.Payload.RelatedImages,
			FileHash:      rec.Payload.FileHash,
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (s *memStore) Close() error { return nil }

func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// countingEmbedder embeds deterministically (same text, same vector) and
// counts calls so tests can assert "zero embedding calls occurred".
type countingEmbedder struct {
	mu    sync.Mutex
	dim   int
	calls int
	err   error
}

func (e *countingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = embedText(t, e.dim)
	}
	return out, nil
}

func (e *countingEmbedder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func embedText(text string, dim int) []float32 {
	vec := make([]float32, dim)
	for i, r := range text {
		vec[(i+int(r))%dim] += float32(r%13) + 1
	}
	return vec
}

// scriptedPartitioner returns a fixed element stream, or an error.
type scriptedPartitioner struct {
	elements []models.RawElement
	err      error
}

func (p *scriptedPartitioner) Partition(ctx context.Context, doc []byte) ([]models.RawElement, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.elements, nil
}

// fakeObjectClient serves documents from a map of keys and URLs.
type fakeObjectClient struct {
	objects map[string][]byte
	urls    map[string][]byte
}

var errObjectMissing = errors.New("object missing")

func (c *fakeObjectClient) UploadFile(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	return "https://bucket.example/" + key, nil
}

func (c *fakeObjectClient) DownloadFile(ctx context.Context, key string) ([]byte, error) {
	if b, ok := c.objects[key]; ok {
		return b, nil
	}
	return nil, errObjectMissing
}

func (c *fakeObjectClient) DownloadToPath(ctx context.Context, key, path string) error { return nil }

func (c *fakeObjectClient) DownloadURL(ctx context.Context, url string) ([]byte, error) {
	if b, ok := c.urls[url]; ok {
		return b, nil
	}
	return nil, errObjectMissing
}
