package vectordb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/markdave123-py/vectora/internal/config"
	"github.com/markdave123-py/vectora/internal/core"
	"github.com/markdave123-py/vectora/internal/models"
)

// existenceLookupLimit caps the id lookup used to prove a document was
// already processed. A single PDF never chunks into more pieces than this.
const existenceLookupLimit = 1000

// Store is the pgvector-backed vector store gateway. One Store owns one
// collection (a table with a fixed-dimension vector column); the connection
// pool is long-lived and shared across requests.
type Store struct {
	db         *sql.DB
	collection string
}

func NewStore(ctx context.Context, cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("vector store configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return &Store{db: db, collection: cfg.CollectionName}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// EnsureCollection is idempotent: it creates the collection on first use and
// fails hard on a dimension mismatch, never recreating an existing one.
func (s *Store) EnsureCollection(ctx context.Context, dim int) error {
	return ensureCollection(ctx, s.db, s.collection, dim)
}

// ExistsByFingerprint returns the ids stored for a file hash, capped at
// existenceLookupLimit. A non-empty result proves the document was processed.
func (s *Store) ExistsByFingerprint(ctx context.Context, fileHash string) ([]string, error) {
	q := fmt.Sprintf(`SELECT id FROM %s WHERE file_hash = $1 LIMIT %d`, s.collection, existenceLookupLimit)

	rows, err := s.db.QueryContext(ctx, q, fileHash)
	if err != nil {
		return nil, fmt.Errorf("existence check for %s: %w", fileHash, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteByFingerprint removes every record belonging to a file hash, used
// before a forced re-ingestion.
func (s *Store) DeleteByFingerprint(ctx context.Context, fileHash string) error {
	q := fmt.Sprintf(`DELETE FROM %s WHERE file_hash = $1`, s.collection)
	if _, err := s.db.ExecContext(ctx, q, fileHash); err != nil {
		return fmt.Errorf("delete vectors for %s: %w", fileHash, err)
	}
	return nil
}

// Upsert writes a batch of records in a single transaction. Re-upserting an
// id overwrites the row, so duplicate writes never duplicate data.
func (s *Store) Upsert(ctx context.Context, records []models.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	q := fmt.Sprintf(`
		INSERT INTO %s
			(id, embedding, content_type, text, page, section, related_images, file_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			content_type = EXCLUDED.content_type,
			text = EXCLUDED.text,
			page = EXCLUDED.page,
			section = EXCLUDED.section,
			related_images = EXCLUDED.related_images,
			file_hash = EXCLUDED.file_hash
	`, s.collection)

	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range records {
		rec := &records[i]
		vec := pgvector.NewVector(rec.Vector)

		related, err := json.Marshal(rec.Payload.RelatedImages)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("marshal related images for %s: %w", rec.ID, err)
		}

		if _, err := stmt.ExecContext(ctx,
			rec.ID, vec, rec.Payload.ContentType, rec.Payload.Text,
			rec.Payload.Page, rec.Payload.Section, related, rec.Payload.FileHash,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert record %s: %w", rec.ID, err)
		}
	}
	return tx.Commit()
}

// Search runs a cosine similarity query, optionally scoped to one file hash.
// Score is 1 - cosine distance, so results come back descending by score.
func (s *Store) Search(ctx context.Context, vector []float32, limit int, fileHash string) ([]models.SearchHit, error) {
	vec := pgvector.NewVector(vector)

	var (
		rows *sql.Rows
		err  error
	)
	if fileHash != "" {
		q := fmt.Sprintf(`
			SELECT id, content_type, text, page, section, related_images, file_hash,
			       1 - (embedding <=> $1) AS score
			FROM %s
			WHERE file_hash = $2
			ORDER BY embedding <=> $1
			LIMIT $3
		`, s.collection)
		rows, err = s.db.QueryContext(ctx, q, vec, fileHash, limit)
	} else {
		q := fmt.Sprintf(`
			SELECT id, content_type, text, page, section, related_images, file_hash,
			       1 - (embedding <=> $1) AS score
			FROM %s
			ORDER BY embedding <=> $1
			LIMIT $2
		`, s.collection)
		rows, err = s.db.QueryContext(ctx, q, vec, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("similarity query: %w", err)
	}
	defer rows.Close()

	var hits []models.SearchHit
	for rows.Next() {
		var (
			hit     models.SearchHit
			related []byte
		)
		if err := rows.Scan(
			&hit.ID, &hit.ContentType, &hit.Text, &hit.Page, &hit.Section,
			&related, &hit.FileHash, &hit.Score,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(related, &hit.RelatedImages); err != nil {
			return nil, fmt.Errorf("decode related images for %s: %w", hit.ID, err)
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

var _ core.VectorStore = (*Store)(nil)
