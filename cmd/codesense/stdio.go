package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/codesense-dev/codesense/application/service"
	"github.com/codesense-dev/codesense/domain/search"
	"github.com/codesense-dev/codesense/infrastructure/blob"
	"github.com/codesense-dev/codesense/infrastructure/cache"
	"github.com/codesense-dev/codesense/infrastructure/git"
	"github.com/codesense-dev/codesense/infrastructure/parsing"
	"github.com/codesense-dev/codesense/infrastructure/persistence"
	searchinfra "github.com/codesense-dev/codesense/infrastructure/search"
	"github.com/codesense-dev/codesense/internal/database"
	"github.com/codesense-dev/codesense/internal/log"
	"github.com/codesense-dev/codesense/internal/mcp"
)

func stdioCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "stdio",
		Short: "Start MCP server on stdio",
		Long: `Start the MCP (Model Context Protocol) server on stdio.

This allows AI assistants to ingest repositories and ask hybrid structural/
semantic questions about them. Configuration is loaded from environment
variables and .env file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStdio(envFile)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")

	return cmd
}

func runStdio(envFile string) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	if err := cfg.EnsureCloneDir(); err != nil {
		return fmt.Errorf("create clone directory: %w", err)
	}
	if err := cfg.EnsureBlobDir(); err != nil {
		return fmt.Errorf("create blob directory: %w", err)
	}

	// Logger writes to stderr, not stdout: stdout is the MCP transport.
	logger := log.NewLoggerWithWriter(os.Stderr, cfg.LogFormat(), cfg.LogLevel())
	slogger := logger.Slog()

	slogger.Info("starting MCP server",
		slog.String("version", version),
		slog.String("data_dir", cfg.DataDir()),
	)

	db, err := database.New(cfg.DBURL())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slogger.Error("failed to close database", slog.Any("error", err))
		}
	}()
	if err := db.AutoMigrate(persistence.AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	stores := service.Stores{
		Repos:         persistence.NewRepositoryStore(db),
		Runs:          persistence.NewRunStore(db),
		Tasks:         persistence.NewTaskStore(db),
		Symbols:       persistence.NewSymbolStore(db),
		Relationships: persistence.NewRelationshipStore(db),
		Chunks:        persistence.NewChunkStore(db),
	}
	graphQueries := persistence.NewGraphQueries(db, stores.Symbols, stores.Relationships)

	cloner := git.NewCloner(git.NewGoGitAdapter(slogger), cfg.CloneDir(), slogger)
	langs := parsing.NewRegistry()
	blobs := blob.NewFilesystemStore(cfg.BlobDir())

	var vectors search.VectorStore
	if cfg.VectorStoreBackend() == "postgres" {
		vectors = searchinfra.NewVectorStorePostgres(db)
	} else {
		vectors = searchinfra.NewVectorStoreSQLite(db)
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("configure embedding provider: %w", err)
	}
	generator, err := buildGenerator(cfg)
	if err != nil {
		return fmt.Errorf("configure generator provider: %w", err)
	}

	qcfg := cfg.Query()
	embedCache := cache.NewEmbeddingCache(qcfg.EmbeddingCacheSize(), qcfg.EmbeddingCacheTTL())
	queryCache := cache.NewQueryCache(qcfg.QueryCacheSize(), qcfg.QueryCacheTTL())

	registry := service.BuildRegistry(stores, cloner, langs, embedder, embedCache, vectors, blobs,
		cfg.Ingestion().EmbedBatchSize(), cfg.Ingestion().MaxEmbedConcurrency(), slogger)
	worker := service.NewWorker(stores.Tasks, stores.Runs, registry, slogger)

	// ingest_repo issued over this same stdio session must actually make
	// progress, so stdio mode runs its own background worker rather than
	// relying on a separately-running serve process.
	workerCount := cfg.WorkerCount()
	if workerCount <= 0 {
		workerCount = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	for i := 0; i < workerCount; i++ {
		worker.Start(ctx)
	}
	defer worker.Stop()

	coordinator := service.NewCoordinator(stores.Repos, stores.Runs, stores.Tasks)
	queries := service.NewQueryService(
		graphQueries, stores.Symbols, vectors, embedder, generator,
		queryCache, embedCache,
		qcfg.TopK(), qcfg.VectorScoreThreshold(), cfg.Ingestion().CallGraphMaxDepth(),
		slogger,
	)

	mcpServer := mcp.NewServer(coordinator, queries, version, slogger)

	return mcpServer.ServeStdio()
}
