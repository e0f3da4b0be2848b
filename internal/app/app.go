package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/markdave123-py/vectora/internal/config"
	"github.com/markdave123-py/vectora/internal/core/ingestion_engine"
	"github.com/markdave123-py/vectora/internal/core/llm"
	objectclient "github.com/markdave123-py/vectora/internal/core/object-client"
	"github.com/markdave123-py/vectora/internal/core/partition"
	"github.com/markdave123-py/vectora/internal/core/vectordb"
	"github.com/markdave123-py/vectora/internal/services"
)

// App holds the long-lived handles: they are constructed once at process
// start, passed by reference into the pipeline, and torn down in Close.
type App struct {
	Store    *vectordb.Store
	Object   *objectclient.S3Client
	Embedder *llm.GeminiEmbedder
	Server   *Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	store, err := vectordb.NewStore(appCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the vector store: %w", err)
	}
	if err := store.EnsureCollection(appCtx, cfg.EmbedDim); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("couldn't prepare collection %s: %w", cfg.CollectionName, err)
	}
	log.Println("Vector store initialized and ready.")

	objClient, err := objectclient.NewS3Client(appCtx, cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	log.Println("Object client initialized and ready.")

	embedder, err := llm.NewGeminiEmbedder(appCtx, cfg.AIAPIKey, cfg.EmbedModel)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("couldn't initialize the embedder: %w", err)
	}

	partitioner := partition.NewUnstructuredClient(cfg.PartitionerURL, partition.NewDocconvFallback())

	batcher := ingestion_engine.NewBatcher(store, embedder, ingestion_engine.DefaultIngestConfig(cfg.EmbedDim))
	ingestService := services.NewIngestService(store, objClient, partitioner, batcher)
	searchService := services.NewSearchService(store, embedder)

	server := NewServer(cfg, objClient, ingestService, searchService)

	return &App{Store: store, Object: objClient, Embedder: embedder, Server: server}, nil
}

func (a *App) Close() {
	if a.Embedder != nil {
		_ = a.Embedder.Close()
	}
	if a.Store != nil {
		_ = a.Store.Close()
	}
}
