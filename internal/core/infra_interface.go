package core

import (
	"context"
	"io"

	"github.com/markdave123-py/vectora/internal/models"
)

// VectorStore defines the vector collection operations the pipeline needs.
// It abstracts Postgres/pgvector so higher layers never depend on a specific DB.
type VectorStore interface {
	// EnsureCollection creates the collection if it does not exist. An
	// existing collection with a different vector dimension is a hard error.
	EnsureCollection(ctx context.Context, dim int) error

	// ExistsByFingerprint returns the ids already stored for a file hash,
	// capped at a bound large enough to prove existence.
	ExistsByFingerprint(ctx context.Context, fileHash string) ([]string, error)

	// DeleteByFingerprint removes every record belonging to a file hash.
	DeleteByFingerprint(ctx context.Context, fileHash string) error

	// Upsert writes a batch of records; records with an existing id are
	// overwritten, never duplicated.
	Upsert(ctx context.Context, records []models.VectorRecord) error

	// Search runs a cosine similarity query, optionally filtered to one
	// file hash ("" means no filter). Results are ordered by descending score.
	Search(ctx context.Context, vector []float32, limit int, fileHash string) ([]models.SearchHit, error)

	Close() error
}

// EmbeddingProvider maps text to fixed-length vectors.
type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ObjectClient defines interactions with S3 or any object storage. A source
// may also be a public URL, resolved by DownloadURL.
type ObjectClient interface {
	UploadFile(ctx context.Context, key string, data io.Reader, contentType string) (url string, err error)
	DownloadFile(ctx context.Context, key string) ([]byte, error)
	DownloadToPath(ctx context.Context, key, path string) error
	DownloadURL(ctx context.Context, url string) ([]byte, error)
}

// Partitioner turns a raw document into a sequence of typed elements with
// page numbers. Implementations may fall back to a degraded fast mode when
// the primary mode fails.
type Partitioner interface {
	Partition(ctx context.Context, doc []byte) ([]models.RawElement, error)
}
