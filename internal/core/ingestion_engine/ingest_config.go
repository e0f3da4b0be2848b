package ingestion_engine

// IngestConfig tunes the embedding batcher.
//
// BatchSize:   units per embedding request; sized to stay under typical
//              provider payload and rate limits (e.g., 50).
// MaxInFlight: concurrent embedding batches admitted at once (e.g., 5).
// EmbedDim:    expected embedding dimension; must match the collection.
type IngestConfig struct {
	BatchSize   int
	MaxInFlight int
	EmbedDim    int
}

// DefaultIngestConfig returns the standard pipeline tuning for a dimension.
func DefaultIngestConfig(embedDim int) *IngestConfig {
	return &IngestConfig{
		BatchSize:   50,
		MaxInFlight: 5,
		EmbedDim:    embedDim,
	}
}
