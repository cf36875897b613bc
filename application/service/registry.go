package service

import (
	"log/slog"

	"github.com/codesense-dev/codesense/application/handler"
	ingestionhandler "github.com/codesense-dev/codesense/application/handler/ingestion"
	"github.com/codesense-dev/codesense/domain/blob"
	"github.com/codesense-dev/codesense/domain/ingestion"
	"github.com/codesense-dev/codesense/domain/search"
	"github.com/codesense-dev/codesense/infrastructure/cache"
	"github.com/codesense-dev/codesense/infrastructure/git"
	"github.com/codesense-dev/codesense/infrastructure/parsing"
	"github.com/codesense-dev/codesense/infrastructure/persistence"
)

// Stores bundles the persistence-layer stores the stage handlers share,
// kept together so BuildRegistry's signature doesn't grow a parameter per
// store as the pipeline gains stages.
type Stores struct {
	Repos         persistence.RepositoryStore
	Runs          persistence.RunStore
	Tasks         persistence.TaskStore
	Symbols       persistence.SymbolStore
	Relationships persistence.RelationshipStore
	Chunks        persistence.ChunkStore
}

// BuildRegistry wires one handler per ingestion.Stage, chaining clone ->
// parse_index -> resolve_callgraph -> chunk_embed_upsert -> archive_manifest,
// the concrete pipeline the Worker polls against.
func BuildRegistry(
	stores Stores,
	cloner *git.Cloner,
	langs parsing.Registry,
	embedder search.Embedder,
	embedCache *cache.EmbeddingCache,
	vectors search.VectorStore,
	blobs blob.Store,
	embedBatchSize int,
	embedConcurrency int,
	logger *slog.Logger,
) *handler.Registry {
	if logger == nil {
		logger = slog.Default()
	}

	registry := handler.NewRegistry()

	registry.Register(ingestion.StageClone, ingestionhandler.NewCloneHandler(
		stores.Repos, stores.Runs, stores.Tasks, cloner,
	))
	registry.Register(ingestion.StageParseIndex, ingestionhandler.NewParseIndexHandler(
		stores.Runs, stores.Tasks, stores.Symbols, stores.Relationships, langs, logger,
	))
	registry.Register(ingestion.StageResolveCallgraph, ingestionhandler.NewResolveCallgraphHandler(
		stores.Runs, stores.Tasks, stores.Symbols, stores.Relationships, langs, logger,
	))
	registry.Register(ingestion.StageChunkEmbedUpsert, ingestionhandler.NewChunkEmbedUpsertHandler(
		stores.Runs, stores.Tasks, stores.Chunks, embedder, embedCache, vectors, embedBatchSize, embedConcurrency, logger,
	))
	registry.Register(ingestion.StageArchiveManifest, ingestionhandler.NewArchiveManifestHandler(
		stores.Repos, stores.Runs, blobs, cloner,
	))

	return registry
}
