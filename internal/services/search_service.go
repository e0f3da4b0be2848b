package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/markdave123-py/vectora/internal/core"
	"github.com/markdave123-py/vectora/internal/core/ingestion_engine"
	"github.com/markdave123-py/vectora/internal/core/retry"
	"github.com/markdave123-py/vectora/internal/models"
)

const (
	defaultSearchLimit = 5
	maxSearchLimit     = 50
)

// ErrEmptyQuery rejects blank search input before any embedding call.
var ErrEmptyQuery = errors.New("empty search query")

// SearchService is the read path: embed the query through the same provider
// used for ingestion and run a similarity query, optionally scoped to one
// document fingerprint.
type SearchService struct {
	store    core.VectorStore
	embedder core.EmbeddingProvider
	policy   retry.Policy
}

func NewSearchService(store core.VectorStore, embedder core.EmbeddingProvider) *SearchService {
	return &SearchService{
		store:    store,
		embedder: embedder,
		policy:   retry.DefaultPolicy(ingestion_engine.IsTransient),
	}
}

// Search returns up to limit hits ranked by descending cosine score. A
// downstream failure is always an error, never an empty result that could be
// mistaken for zero hits.
func (s *SearchService) Search(ctx context.Context, query string, limit int, fileHash string) ([]models.SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if limit < 1 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	var vecs [][]float32
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		v, err := s.embedder.EmbedTexts(ctx, []string{query})
		if err != nil {
			return err
		}
		vecs = v
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w: %w", core.ErrInfrastructure, err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors for one text", len(vecs))
	}

	hits, err := s.store.Search(ctx, vecs[0], limit, fileHash)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w: %w", core.ErrInfrastructure, err)
	}
	if hits == nil {
		hits = []models.SearchHit{}
	}
	return hits, nil
}
