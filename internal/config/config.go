// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost        = "0.0.0.0"
	DefaultPort        = 8080
	DefaultLogLevel    = "INFO"
	DefaultWorkerCount = 1
	DefaultCloneSubdir = "repos"
	DefaultBlobSubdir  = "blobs"

	DefaultEndpointParallelTasks = 1
	DefaultEndpointTimeout       = 60 * time.Second
	DefaultEndpointMaxRetries    = 5
	DefaultEndpointInitialDelay  = 2 * time.Second
	DefaultEndpointBackoffFactor = 2.0

	// Ingestion defaults.
	DefaultChunkWindowLines   = 300
	DefaultChunkStrideLines   = 250
	DefaultEmbedRPM           = 10
	DefaultEmbedMaxRetries    = 3
	DefaultEmbedBatchSize     = 64
	DefaultCallGraphMaxDepth  = 10
	DefaultDegradedThreshold  = 0.5
	DefaultMaxEmbedConcurrency = 2

	// Query defaults.
	DefaultVectorScoreThreshold = 0.0
	DefaultTopK                 = 10
	DefaultEmbeddingCacheTTLS   = 24 * 60 * 60
	DefaultQueryCacheTTLS       = 60 * 60
	DefaultEmbeddingCacheSize   = 10000
	DefaultQueryCacheSize       = 1000

	DefaultPeriodicSyncInterval      = 1800.0 // seconds
	DefaultPeriodicSyncCheckInterval = 10.0   // seconds
	DefaultPeriodicSyncRetries       = 3
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// Endpoint configures an AI service endpoint (embedding or generation).
type Endpoint struct {
	baseURL          string
	model            string
	apiKey           string
	numParallelTasks int
	timeout          time.Duration
	maxRetries       int
	initialDelay     time.Duration
	backoffFactor    float64
}

// NewEndpoint creates a new Endpoint with defaults.
func NewEndpoint() Endpoint {
	return Endpoint{
		numParallelTasks: DefaultEndpointParallelTasks,
		timeout:          DefaultEndpointTimeout,
		maxRetries:       DefaultEndpointMaxRetries,
		initialDelay:     DefaultEndpointInitialDelay,
		backoffFactor:    DefaultEndpointBackoffFactor,
	}
}

// BaseURL returns the base URL for the endpoint.
func (e Endpoint) BaseURL() string { return e.baseURL }

// Model returns the model identifier.
func (e Endpoint) Model() string { return e.model }

// APIKey returns the API key.
func (e Endpoint) APIKey() string { return e.apiKey }

// NumParallelTasks returns the number of parallel tasks.
func (e Endpoint) NumParallelTasks() int { return e.numParallelTasks }

// Timeout returns the request timeout.
func (e Endpoint) Timeout() time.Duration { return e.timeout }

// MaxRetries returns the maximum retry count.
func (e Endpoint) MaxRetries() int { return e.maxRetries }

// InitialDelay returns the initial retry delay.
func (e Endpoint) InitialDelay() time.Duration { return e.initialDelay }

// BackoffFactor returns the retry backoff multiplier.
func (e Endpoint) BackoffFactor() float64 { return e.backoffFactor }

// IsConfigured returns true if the endpoint has required configuration.
func (e Endpoint) IsConfigured() bool {
	return e.model != ""
}

// EndpointOption is a functional option for Endpoint.
type EndpointOption func(*Endpoint)

// WithBaseURL sets the base URL.
func WithBaseURL(url string) EndpointOption { return func(e *Endpoint) { e.baseURL = url } }

// WithModel sets the model.
func WithModel(model string) EndpointOption { return func(e *Endpoint) { e.model = model } }

// WithAPIKey sets the API key.
func WithAPIKey(key string) EndpointOption { return func(e *Endpoint) { e.apiKey = key } }

// WithNumParallelTasks sets the parallel task count.
func WithNumParallelTasks(n int) EndpointOption {
	return func(e *Endpoint) { e.numParallelTasks = n }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) EndpointOption { return func(e *Endpoint) { e.timeout = d } }

// WithMaxRetries sets the maximum retry count.
func WithMaxRetries(n int) EndpointOption { return func(e *Endpoint) { e.maxRetries = n } }

// WithInitialDelay sets the initial retry delay.
func WithInitialDelay(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.initialDelay = d }
}

// WithBackoffFactor sets the retry backoff multiplier.
func WithBackoffFactor(f float64) EndpointOption {
	return func(e *Endpoint) { e.backoffFactor = f }
}

// NewEndpointWithOptions creates an Endpoint with functional options.
func NewEndpointWithOptions(opts ...EndpointOption) Endpoint {
	e := NewEndpoint()
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// IngestionConfig configures the ingestion coordinator's per-stage knobs.
type IngestionConfig struct {
	chunkWindowLines    int
	chunkStrideLines    int
	embedRPM            int
	embedMaxRetries     int
	embedBatchSize      int
	callGraphMaxDepth   int
	degradedThreshold   float64
	maxEmbedConcurrency int
}

// NewIngestionConfig creates an IngestionConfig with defaults.
func NewIngestionConfig() IngestionConfig {
	return IngestionConfig{
		chunkWindowLines:    DefaultChunkWindowLines,
		chunkStrideLines:    DefaultChunkStrideLines,
		embedRPM:            DefaultEmbedRPM,
		embedMaxRetries:     DefaultEmbedMaxRetries,
		embedBatchSize:      DefaultEmbedBatchSize,
		callGraphMaxDepth:   DefaultCallGraphMaxDepth,
		degradedThreshold:   DefaultDegradedThreshold,
		maxEmbedConcurrency: DefaultMaxEmbedConcurrency,
	}
}

// ChunkWindowLines returns the chunker's window size in lines.
func (c IngestionConfig) ChunkWindowLines() int { return c.chunkWindowLines }

// ChunkStrideLines returns the chunker's stride in lines.
func (c IngestionConfig) ChunkStrideLines() int { return c.chunkStrideLines }

// EmbedRPM returns the embedder's requests-per-minute ceiling.
func (c IngestionConfig) EmbedRPM() int { return c.embedRPM }

// EmbedMaxRetries returns the embedder's retry ceiling on rate limiting.
func (c IngestionConfig) EmbedMaxRetries() int { return c.embedMaxRetries }

// EmbedBatchSize returns the number of chunks embedded per provider call.
func (c IngestionConfig) EmbedBatchSize() int { return c.embedBatchSize }

// CallGraphMaxDepth returns the default hop bound for call-graph traversal.
func (c IngestionConfig) CallGraphMaxDepth() int { return c.callGraphMaxDepth }

// DegradedThreshold returns the chunk-failure fraction that marks a run degraded.
func (c IngestionConfig) DegradedThreshold() float64 { return c.degradedThreshold }

// MaxEmbedConcurrency returns the embedding-batch parallelism bound.
func (c IngestionConfig) MaxEmbedConcurrency() int { return c.maxEmbedConcurrency }

// IngestionConfigOption is a functional option for IngestionConfig.
type IngestionConfigOption func(*IngestionConfig)

// WithChunkWindowLines sets the chunk window size.
func WithChunkWindowLines(n int) IngestionConfigOption {
	return func(c *IngestionConfig) { c.chunkWindowLines = n }
}

// WithChunkStrideLines sets the chunk stride.
func WithChunkStrideLines(n int) IngestionConfigOption {
	return func(c *IngestionConfig) { c.chunkStrideLines = n }
}

// WithEmbedRPM sets the embedder rate limit.
func WithEmbedRPM(n int) IngestionConfigOption { return func(c *IngestionConfig) { c.embedRPM = n } }

// WithEmbedMaxRetries sets the embedder retry ceiling.
func WithEmbedMaxRetries(n int) IngestionConfigOption {
	return func(c *IngestionConfig) { c.embedMaxRetries = n }
}

// WithEmbedBatchSize sets the embedding batch size.
func WithEmbedBatchSize(n int) IngestionConfigOption {
	return func(c *IngestionConfig) { c.embedBatchSize = n }
}

// WithCallGraphMaxDepth sets the call-graph traversal depth bound.
func WithCallGraphMaxDepth(n int) IngestionConfigOption {
	return func(c *IngestionConfig) { c.callGraphMaxDepth = n }
}

// WithDegradedThreshold sets the degraded-run chunk-failure fraction.
func WithDegradedThreshold(f float64) IngestionConfigOption {
	return func(c *IngestionConfig) { c.degradedThreshold = f }
}

// WithMaxEmbedConcurrency sets the embedding-batch parallelism bound.
func WithMaxEmbedConcurrency(n int) IngestionConfigOption {
	return func(c *IngestionConfig) { c.maxEmbedConcurrency = n }
}

// NewIngestionConfigWithOptions creates an IngestionConfig with options applied.
func NewIngestionConfigWithOptions(opts ...IngestionConfigOption) IngestionConfig {
	c := NewIngestionConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// QueryConfig configures the hybrid query service's knobs.
type QueryConfig struct {
	vectorScoreThreshold float64
	topK                 int
	embeddingCacheTTLS   int
	queryCacheTTLS       int
	embeddingCacheSize   int
	queryCacheSize       int
}

// NewQueryConfig creates a QueryConfig with defaults.
func NewQueryConfig() QueryConfig {
	return QueryConfig{
		vectorScoreThreshold: DefaultVectorScoreThreshold,
		topK:                 DefaultTopK,
		embeddingCacheTTLS:   DefaultEmbeddingCacheTTLS,
		queryCacheTTLS:       DefaultQueryCacheTTLS,
		embeddingCacheSize:   DefaultEmbeddingCacheSize,
		queryCacheSize:       DefaultQueryCacheSize,
	}
}

// VectorScoreThreshold returns the minimum cosine similarity a vector hit must clear.
func (c QueryConfig) VectorScoreThreshold() float64 { return c.vectorScoreThreshold }

// TopK returns the default number of retrieved chunks per query.
func (c QueryConfig) TopK() int { return c.topK }

// EmbeddingCacheTTL returns the embedding cache's entry lifetime.
func (c QueryConfig) EmbeddingCacheTTL() time.Duration {
	return time.Duration(c.embeddingCacheTTLS) * time.Second
}

// QueryCacheTTL returns the query-result cache's entry lifetime.
func (c QueryConfig) QueryCacheTTL() time.Duration {
	return time.Duration(c.queryCacheTTLS) * time.Second
}

// EmbeddingCacheSize returns the embedding cache's maximum entry count.
func (c QueryConfig) EmbeddingCacheSize() int { return c.embeddingCacheSize }

// QueryCacheSize returns the query-result cache's maximum entry count.
func (c QueryConfig) QueryCacheSize() int { return c.queryCacheSize }

// QueryConfigOption is a functional option for QueryConfig.
type QueryConfigOption func(*QueryConfig)

// WithVectorScoreThreshold sets the minimum vector-hit similarity.
func WithVectorScoreThreshold(f float64) QueryConfigOption {
	return func(c *QueryConfig) { c.vectorScoreThreshold = f }
}

// WithTopK sets the default retrieved-chunk count.
func WithTopK(n int) QueryConfigOption { return func(c *QueryConfig) { c.topK = n } }

// WithEmbeddingCacheTTLSeconds sets the embedding cache TTL in seconds.
func WithEmbeddingCacheTTLSeconds(s int) QueryConfigOption {
	return func(c *QueryConfig) { c.embeddingCacheTTLS = s }
}

// WithQueryCacheTTLSeconds sets the query cache TTL in seconds.
func WithQueryCacheTTLSeconds(s int) QueryConfigOption {
	return func(c *QueryConfig) { c.queryCacheTTLS = s }
}

// WithEmbeddingCacheSize sets the embedding cache's entry cap.
func WithEmbeddingCacheSize(n int) QueryConfigOption {
	return func(c *QueryConfig) { c.embeddingCacheSize = n }
}

// WithQueryCacheSize sets the query cache's entry cap.
func WithQueryCacheSize(n int) QueryConfigOption {
	return func(c *QueryConfig) { c.queryCacheSize = n }
}

// NewQueryConfigWithOptions creates a QueryConfig with options applied.
func NewQueryConfigWithOptions(opts ...QueryConfigOption) QueryConfig {
	c := NewQueryConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// PeriodicSyncConfig configures periodic repository re-ingestion.
type PeriodicSyncConfig struct {
	enabled              bool
	intervalSeconds      float64
	checkIntervalSeconds float64
	retryAttempts        int
}

// NewPeriodicSyncConfig creates a new PeriodicSyncConfig with defaults.
func NewPeriodicSyncConfig() PeriodicSyncConfig {
	return PeriodicSyncConfig{
		enabled:              true,
		intervalSeconds:      DefaultPeriodicSyncInterval,
		checkIntervalSeconds: DefaultPeriodicSyncCheckInterval,
		retryAttempts:        DefaultPeriodicSyncRetries,
	}
}

// Enabled returns whether periodic sync is enabled.
func (p PeriodicSyncConfig) Enabled() bool { return p.enabled }

// Interval returns the sync interval as a duration.
func (p PeriodicSyncConfig) Interval() time.Duration {
	return time.Duration(p.intervalSeconds * float64(time.Second))
}

// CheckInterval returns how often to check for repositories due for sync.
func (p PeriodicSyncConfig) CheckInterval() time.Duration {
	return time.Duration(p.checkIntervalSeconds * float64(time.Second))
}

// RetryAttempts returns the retry count.
func (p PeriodicSyncConfig) RetryAttempts() int { return p.retryAttempts }

// WithEnabled returns a new config with the specified enabled state.
func (p PeriodicSyncConfig) WithEnabled(enabled bool) PeriodicSyncConfig {
	p.enabled = enabled
	return p
}

// WithIntervalSeconds returns a new config with the specified interval.
func (p PeriodicSyncConfig) WithIntervalSeconds(seconds float64) PeriodicSyncConfig {
	p.intervalSeconds = seconds
	return p
}

// WithCheckIntervalSeconds returns a new config with the specified check interval.
func (p PeriodicSyncConfig) WithCheckIntervalSeconds(seconds float64) PeriodicSyncConfig {
	p.checkIntervalSeconds = seconds
	return p
}

// WithRetryAttempts returns a new config with the specified retry count.
func (p PeriodicSyncConfig) WithRetryAttempts(attempts int) PeriodicSyncConfig {
	p.retryAttempts = attempts
	return p
}

// AppConfig holds the main application configuration.
type AppConfig struct {
	host               string
	port               int
	dataDir            string
	dbURL              string
	logLevel           string
	logFormat          LogFormat
	embeddingEndpoint  *Endpoint
	generatorEndpoint  *Endpoint
	ingestion          IngestionConfig
	query              QueryConfig
	periodicSync       PeriodicSyncConfig
	apiKeys            []string
	jwtSecret          string
	workerCount        int
	httpCacheDir       string
	vectorStoreBackend string
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".codesense"
	}
	return filepath.Join(home, ".codesense")
}

// DefaultCloneDir returns the default clone directory for a given data directory.
func DefaultCloneDir(dataDir string) string {
	return filepath.Join(dataDir, DefaultCloneSubdir)
}

// DefaultBlobDir returns the default object-store directory for a given data directory.
func DefaultBlobDir(dataDir string) string {
	return filepath.Join(dataDir, DefaultBlobSubdir)
}

// DefaultLogger returns the default slog logger for library consumers.
func DefaultLogger() *slog.Logger {
	return slog.Default()
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	dataDir := DefaultDataDir()
	return AppConfig{
		host:               DefaultHost,
		port:               DefaultPort,
		dataDir:            dataDir,
		dbURL:              "sqlite:///" + filepath.Join(dataDir, "codesense.db"),
		logLevel:           DefaultLogLevel,
		logFormat:          LogFormatPretty,
		ingestion:          NewIngestionConfig(),
		query:              NewQueryConfig(),
		periodicSync:       NewPeriodicSyncConfig(),
		apiKeys:            []string{},
		workerCount:        DefaultWorkerCount,
		vectorStoreBackend: "sqlite",
	}
}

// Host returns the server host to bind to.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port to listen on.
func (c AppConfig) Port() int { return c.port }

// Addr returns the combined host:port address.
func (c AppConfig) Addr() string { return fmt.Sprintf("%s:%d", c.host, c.port) }

// DataDir returns the data directory path.
func (c AppConfig) DataDir() string { return c.dataDir }

// DBURL returns the database connection URL.
func (c AppConfig) DBURL() string { return c.dbURL }

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// EmbeddingEndpoint returns the embedding endpoint config.
func (c AppConfig) EmbeddingEndpoint() *Endpoint { return c.embeddingEndpoint }

// GeneratorEndpoint returns the generator (chat-completion) endpoint config.
func (c AppConfig) GeneratorEndpoint() *Endpoint { return c.generatorEndpoint }

// Ingestion returns the ingestion coordinator's config.
func (c AppConfig) Ingestion() IngestionConfig { return c.ingestion }

// Query returns the hybrid query service's config.
func (c AppConfig) Query() QueryConfig { return c.query }

// PeriodicSync returns the periodic sync config.
func (c AppConfig) PeriodicSync() PeriodicSyncConfig { return c.periodicSync }

// APIKeys returns the configured API keys.
func (c AppConfig) APIKeys() []string {
	keys := make([]string, len(c.apiKeys))
	copy(keys, c.apiKeys)
	return keys
}

// JWTSecret returns the HMAC secret used to verify Bearer JWTs presented as
// an alternative to a static X-API-KEY on write requests, or "" if JWT auth
// is disabled.
func (c AppConfig) JWTSecret() string { return c.jwtSecret }

// WorkerCount returns the number of background ingestion workers.
func (c AppConfig) WorkerCount() int { return c.workerCount }

// HTTPCacheDir returns the directory used to cache provider HTTP responses,
// or "" if disabled.
func (c AppConfig) HTTPCacheDir() string { return c.httpCacheDir }

// VectorStoreBackend returns "sqlite" or "postgres", selecting which
// infrastructure/search.VectorStore implementation to construct.
func (c AppConfig) VectorStoreBackend() string { return c.vectorStoreBackend }

// CloneDir returns the clone directory path.
func (c AppConfig) CloneDir() string { return filepath.Join(c.dataDir, DefaultCloneSubdir) }

// BlobDir returns the object-store directory path.
func (c AppConfig) BlobDir() string { return filepath.Join(c.dataDir, DefaultBlobSubdir) }

// EnsureDataDir creates the data directory if it doesn't exist.
func (c AppConfig) EnsureDataDir() error { return os.MkdirAll(c.dataDir, 0o755) }

// EnsureCloneDir creates the clone directory if it doesn't exist.
func (c AppConfig) EnsureCloneDir() error { return os.MkdirAll(c.CloneDir(), 0o755) }

// EnsureBlobDir creates the object-store directory if it doesn't exist.
func (c AppConfig) EnsureBlobDir() error { return os.MkdirAll(c.BlobDir(), 0o755) }

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithHost sets the server host.
func WithHost(host string) AppConfigOption { return func(c *AppConfig) { c.host = host } }

// WithPort sets the server port.
func WithPort(port int) AppConfigOption { return func(c *AppConfig) { c.port = port } }

// WithDataDir sets the data directory.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) {
		c.dataDir = dir
		if c.dbURL == "" || strings.Contains(c.dbURL, "codesense.db") {
			c.dbURL = "sqlite:///" + filepath.Join(dir, "codesense.db")
		}
	}
}

// WithDBURL sets the database URL.
func WithDBURL(url string) AppConfigOption { return func(c *AppConfig) { c.dbURL = url } }

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption { return func(c *AppConfig) { c.logLevel = level } }

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithEmbeddingEndpoint sets the embedding endpoint.
func WithEmbeddingEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.embeddingEndpoint = &e }
}

// WithGeneratorEndpoint sets the generator endpoint.
func WithGeneratorEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.generatorEndpoint = &e }
}

// WithIngestionConfig sets the ingestion config.
func WithIngestionConfig(i IngestionConfig) AppConfigOption {
	return func(c *AppConfig) { c.ingestion = i }
}

// WithQueryConfig sets the query config.
func WithQueryConfig(q QueryConfig) AppConfigOption { return func(c *AppConfig) { c.query = q } }

// WithPeriodicSyncConfig sets the periodic sync config.
func WithPeriodicSyncConfig(p PeriodicSyncConfig) AppConfigOption {
	return func(c *AppConfig) { c.periodicSync = p }
}

// WithAPIKeys sets the API keys.
func WithAPIKeys(keys []string) AppConfigOption {
	return func(c *AppConfig) {
		c.apiKeys = make([]string, len(keys))
		copy(c.apiKeys, keys)
	}
}

// WithJWTSecret sets the HMAC secret used to verify Bearer JWTs.
func WithJWTSecret(secret string) AppConfigOption {
	return func(c *AppConfig) { c.jwtSecret = secret }
}

// WithWorkerCount sets the number of background workers.
func WithWorkerCount(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.workerCount = n
		}
	}
}

// WithHTTPCacheDir sets the provider HTTP response cache directory.
func WithHTTPCacheDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.httpCacheDir = dir }
}

// WithVectorStoreBackend sets the vector store backend ("sqlite" or "postgres").
func WithVectorStoreBackend(backend string) AppConfigOption {
	return func(c *AppConfig) { c.vectorStoreBackend = backend }
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	c := NewAppConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply returns a new AppConfig with the given options applied. This copies
// all fields from the receiver and then applies the options, making it safe
// to use when adding new fields to AppConfig.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes for logging the configuration. Sensitive
// values like API keys are masked or shown as counts.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("data_dir", c.dataDir),
		slog.String("clone_dir", c.CloneDir()),
		slog.String("log_level", c.logLevel),
		slog.String("db_url", c.maskedDBURL()),
		slog.String("vector_store_backend", c.vectorStoreBackend),
		slog.String("embedding_model", c.endpointModel(c.embeddingEndpoint)),
		slog.String("generator_model", c.endpointModel(c.generatorEndpoint)),
		slog.Int("api_keys_count", len(c.apiKeys)),
		slog.Int("worker_count", c.workerCount),
		slog.Bool("periodic_sync_enabled", c.periodicSync.Enabled()),
		slog.Duration("periodic_sync_interval", c.periodicSync.Interval()),
	}
}

func (c AppConfig) maskedDBURL() string {
	if c.dbURL == "" {
		return "(default)"
	}
	if strings.HasPrefix(c.dbURL, "sqlite:") {
		return c.dbURL
	}
	return "postgres://***@***"
}

func (c AppConfig) endpointModel(e *Endpoint) string {
	if e == nil {
		return "(not configured)"
	}
	return e.Model()
}

// ParseAPIKeys parses a comma-separated string of API keys.
func ParseAPIKeys(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			keys = append(keys, trimmed)
		}
	}
	return keys
}
