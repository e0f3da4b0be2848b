package vectordb

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"regexp"
	"time"

	"github.com/markdave123-py/vectora/internal/core"
)

//go:embed scripts/initdb.sql
var bootstrapFS embed.FS

// collectionNamePattern keeps collection names usable as SQL identifiers.
var collectionNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

// collectionExistsQuery is scoped to the current schema so a same-named table
// elsewhere never shadows the collection; the dimension probe below resolves
// the name through the same search path.
const collectionExistsQuery = `
	SELECT EXISTS (
	  SELECT 1 FROM information_schema.tables
	  WHERE table_schema = current_schema() AND table_name = $1
	)`

// ensureCollection creates the collection table if it does not exist. An
// existing table with a different embedding dimension is a hard error —
// recreating it would silently destroy every stored vector.
func ensureCollection(ctx context.Context, db *sql.DB, collection string, dim int) error {
	if !collectionNamePattern.MatchString(collection) {
		return fmt.Errorf("invalid collection name %q", collection)
	}
	if dim < 1 {
		return fmt.Errorf("invalid collection dimension %d", dim)
	}

	ctxBoot, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	var exists bool
	err := db.QueryRowContext(ctxBoot, collectionExistsQuery, collection).
		Scan(&exists)
	if err != nil {
		return fmt.Errorf("collection existence check failed: %w", err)
	}

	if !exists {
		return createCollection(ctxBoot, db, collection, dim)
	}

	existingDim, err := collectionDimension(ctxBoot, db, collection)
	if err != nil {
		return err
	}
	if existingDim != dim {
		return fmt.Errorf("collection %s has dimension %d, expected %d: %w", collection, existingDim, dim, core.ErrDimensionMismatch)
	}
	return nil
}

func createCollection(ctx context.Context, db *sql.DB, collection string, dim int) error {
	sqlBytes, err := bootstrapFS.ReadFile("scripts/initdb.sql")
	if err != nil {
		return fmt.Errorf("read initdb.sql: %w", err)
	}
	stmt := fmt.Sprintf(string(sqlBytes), collection, dim, collection, collection)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("create collection %s: %w", collection, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit collection bootstrap: %w", err)
	}
	return nil
}

// collectionDimension reads the declared vector dimension of an existing
// collection; for pgvector the column typmod is the dimension itself.
func collectionDimension(ctx context.Context, db *sql.DB, collection string) (int, error) {
	var dim int
	err := db.QueryRowContext(ctx, `
		SELECT atttypmod FROM pg_attribute
		WHERE attrelid = $1::regclass AND attname = 'embedding'`, collection).
		Scan(&dim)
	if err != nil {
		return 0, fmt.Errorf("read dimension of collection %s: %w", collection, err)
	}
	return dim, nil
}
