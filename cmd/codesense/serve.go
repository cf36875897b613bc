package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/codesense-dev/codesense/application/service"
	"github.com/codesense-dev/codesense/domain/search"
	"github.com/codesense-dev/codesense/infrastructure/api"
	"github.com/codesense-dev/codesense/infrastructure/blob"
	"github.com/codesense-dev/codesense/infrastructure/cache"
	"github.com/codesense-dev/codesense/infrastructure/git"
	"github.com/codesense-dev/codesense/infrastructure/parsing"
	"github.com/codesense-dev/codesense/infrastructure/persistence"
	"github.com/codesense-dev/codesense/infrastructure/provider"
	searchinfra "github.com/codesense-dev/codesense/infrastructure/search"
	"github.com/codesense-dev/codesense/internal/config"
	"github.com/codesense-dev/codesense/internal/database"
	"github.com/codesense-dev/codesense/internal/log"
	"github.com/codesense-dev/codesense/internal/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

func serveCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and MCP server",
		Long: `Start the HTTP API server (and the MCP streaming endpoint mounted at /mcp).

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                          Server host to bind to (default: 0.0.0.0)
  PORT                          Server port to listen on (default: 8080)
  DATA_DIR                      Data directory (default: ~/.codesense)
  DB_URL                        Database URL (default: sqlite:///{data_dir}/codesense.db)
  LOG_LEVEL                     Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT                    Log format: pretty, json (default: pretty)
  API_KEYS                      Comma-separated list of valid API keys
  JWT_SECRET                    HMAC secret accepting Bearer JWTs as an alternative to API_KEYS
  WORKER_COUNT                  Number of background ingestion workers (default: 1)
  VECTOR_STORE_BACKEND          Vector index backend: sqlite, postgres (default: sqlite)
  HTTP_CACHE_DIR                Directory to cache provider HTTP responses (optional)

  EMBEDDING_*                   Embedding AI service configuration
    BASE_URL, MODEL, API_KEY, NUM_PARALLEL_TASKS, TIMEOUT_SECONDS, MAX_RETRIES,
    INITIAL_DELAY_SECONDS, BACKOFF_FACTOR

  GENERATOR_*                   Generation AI service configuration
    (same fields as EMBEDDING_*)

  INGESTION_*                   Chunking/embedding/call-graph knobs
  QUERY_*                       Retrieval/cache knobs

  PERIODIC_SYNC_ENABLED         Enable periodic sync (default: true)
  PERIODIC_SYNC_INTERVAL_SECONDS  Sync interval in seconds (default: 1800)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(envFile, host, port)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8080)")

	return cmd
}

func runServe(envFile, host string, port int) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	cfg = applyServeOverrides(cfg, host, port)

	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	if err := cfg.EnsureCloneDir(); err != nil {
		return fmt.Errorf("create clone directory: %w", err)
	}
	if err := cfg.EnsureBlobDir(); err != nil {
		return fmt.Errorf("create blob directory: %w", err)
	}

	logger := log.NewLogger(cfg)
	slogger := logger.Slog()

	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	slogger.LogAttrs(context.Background(), slog.LevelInfo, "starting codesense", attrs...)

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

	periodicSync := service.NewPeriodicSync(cfg.PeriodicSync(), stores.Repos, coordinator, slogger)
	periodicSync.Start(ctx)
	defer periodicSync.Stop()

	apiServer := api.NewAPIServerWithJWT(cfg.Addr(), coordinator, queries, cfg.APIKeys(), cfg.JWTSecret(), slogger)

	mcpSrv := mcp.NewServer(coordinator, queries, version, slogger)
	apiServer.MountMCP(mcpserver.NewStreamableHTTPServer(mcpSrv.MCPServer()))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slogger.Info("shutting down server")
		shutdownCtx, shutdownCancel := context.WithCancel(context.Background())
		defer shutdownCancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			slogger.Error("shutdown error", slog.Any("error", err))
		}
		cancel()
	}()

	slogger.Info("starting server", slog.String("addr", cfg.Addr()))
	if err := apiServer.ListenAndServe(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// buildEmbedder constructs the OpenAI-backed embedder when the embedding
// endpoint is fully configured, or nil otherwise (semantic retrieval then
// degrades to static-only results, per QueryService.retrieveChunks).
func buildEmbedder(cfg config.AppConfig) (search.Embedder, error) {
	endpoint := cfg.EmbeddingEndpoint()
	if endpoint == nil || endpoint.BaseURL() == "" || endpoint.APIKey() == "" {
		return nil, nil
	}

	client, err := newOpenAIClient(cfg, endpoint, cfg.Ingestion().EmbedRPM(), cfg.Ingestion().EmbedMaxRetries())
	if err != nil {
		return nil, err
	}

	return provider.NewOpenAIEmbedder(client, endpoint.Model(),
		provider.WithEmbedMaxRetries(cfg.Ingestion().EmbedMaxRetries()),
	), nil
}

// buildGenerator constructs the OpenAI-backed chat-completion generator
// when the generator endpoint is configured, or nil otherwise (hybrid/
// semantic answers then degrade to retrieved-context-only, per
// QueryService.generate).
func buildGenerator(cfg config.AppConfig) (search.Generator, error) {
	endpoint := cfg.GeneratorEndpoint()
	if endpoint == nil || endpoint.BaseURL() == "" || endpoint.APIKey() == "" {
		return nil, nil
	}

	client, err := newOpenAIClient(cfg, endpoint, 0, endpoint.MaxRetries())
	if err != nil {
		return nil, err
	}

	return provider.NewOpenAIGenerator(client, endpoint.Model()), nil
}

// newOpenAIClient builds a go-openai client whose transport enforces rpm
// (when positive) and, when cfg.HTTPCacheDir is set, caches responses on
// disk, chaining the two RoundTripper decorators in sequence.
func newOpenAIClient(cfg config.AppConfig, endpoint *config.Endpoint, rpm, maxRetries int) (*openai.Client, error) {
	var transport http.RoundTripper = http.DefaultTransport

	if cacheDir := cfg.HTTPCacheDir(); cacheDir != "" {
		cached, err := provider.NewCachingTransport(cacheDir, transport)
		if err != nil {
			return nil, fmt.Errorf("caching transport: %w", err)
		}
		transport = cached
	}

	if rpm > 0 {
		transport = provider.NewRateLimitedTransport(rpm, maxRetries, transport)
	}

	oaCfg := openai.DefaultConfig(endpoint.APIKey())
	if endpoint.BaseURL() != "" {
		oaCfg.BaseURL = endpoint.BaseURL()
	}
	oaCfg.HTTPClient = &http.Client{
		Timeout:   endpoint.Timeout(),
		Transport: transport,
	}

	return openai.NewClientWithConfig(oaCfg), nil
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	var opts []config.AppConfigOption

	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}

	return cfg.Apply(opts...)
}
