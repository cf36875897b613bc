package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig mirrors AppConfig's shape with envconfig tags, using flat
// (unprefixed) environment variable naming.
type EnvConfig struct {
	Host     string `envconfig:"HOST" default:"0.0.0.0"`
	Port     int    `envconfig:"PORT" default:"8080"`
	DataDir  string `envconfig:"DATA_DIR"`
	DBURL    string `envconfig:"DB_URL"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	APIKeys     string `envconfig:"API_KEYS"`
	JWTSecret   string `envconfig:"JWT_SECRET"`
	WorkerCount int    `envconfig:"WORKER_COUNT"`

	HTTPCacheDir       string `envconfig:"HTTP_CACHE_DIR"`
	VectorStoreBackend string `envconfig:"VECTOR_STORE_BACKEND"`

	EmbeddingEndpoint EndpointEnv `envconfig:"EMBEDDING"`
	GeneratorEndpoint EndpointEnv `envconfig:"GENERATOR"`

	Ingestion IngestionEnv `envconfig:"INGESTION"`
	Query     QueryEnv     `envconfig:"QUERY"`

	PeriodicSync PeriodicSyncEnv `envconfig:"PERIODIC_SYNC"`
}

// EndpointEnv mirrors Endpoint with envconfig tags.
type EndpointEnv struct {
	BaseURL          string  `envconfig:"BASE_URL"`
	Model            string  `envconfig:"MODEL"`
	APIKey           string  `envconfig:"API_KEY"`
	NumParallelTasks int     `envconfig:"NUM_PARALLEL_TASKS"`
	TimeoutSeconds   float64 `envconfig:"TIMEOUT_SECONDS"`
	MaxRetries       int     `envconfig:"MAX_RETRIES"`
	InitialDelaySeconds float64 `envconfig:"INITIAL_DELAY_SECONDS"`
	BackoffFactor    float64 `envconfig:"BACKOFF_FACTOR"`
}

// IngestionEnv mirrors IngestionConfig with envconfig tags.
type IngestionEnv struct {
	ChunkWindowLines    int     `envconfig:"CHUNK_WINDOW_LINES"`
	ChunkStrideLines    int     `envconfig:"CHUNK_STRIDE_LINES"`
	EmbedRPM            int     `envconfig:"EMBED_RPM"`
	EmbedMaxRetries     int     `envconfig:"EMBED_MAX_RETRIES"`
	EmbedBatchSize      int     `envconfig:"EMBED_BATCH_SIZE"`
	CallGraphMaxDepth   int     `envconfig:"CALL_GRAPH_MAX_DEPTH"`
	DegradedThreshold   float64 `envconfig:"DEGRADED_THRESHOLD"`
	MaxEmbedConcurrency int     `envconfig:"MAX_EMBED_CONCURRENCY"`
}

// QueryEnv mirrors QueryConfig with envconfig tags.
type QueryEnv struct {
	VectorScoreThreshold float64 `envconfig:"VECTOR_SCORE_THRESHOLD"`
	TopK                 int     `envconfig:"TOP_K"`
	EmbeddingCacheTTLS   int     `envconfig:"EMBEDDING_CACHE_TTL_S"`
	QueryCacheTTLS       int     `envconfig:"QUERY_CACHE_TTL_S"`
	EmbeddingCacheSize   int     `envconfig:"EMBEDDING_CACHE_SIZE"`
	QueryCacheSize       int     `envconfig:"QUERY_CACHE_SIZE"`
}

// PeriodicSyncEnv mirrors PeriodicSyncConfig with envconfig tags.
type PeriodicSyncEnv struct {
	Enabled              bool    `envconfig:"ENABLED" default:"true"`
	IntervalSeconds      float64 `envconfig:"INTERVAL_SECONDS"`
	CheckIntervalSeconds float64 `envconfig:"CHECK_INTERVAL_SECONDS"`
	RetryAttempts        int     `envconfig:"RETRY_ATTEMPTS"`
}

// LoadFromEnv populates an EnvConfig from the process environment, applying
// envconfig defaults for anything unset.
func LoadFromEnv() (EnvConfig, error) {
	return LoadFromEnvWithPrefix("")
}

// LoadFromEnvWithPrefix populates an EnvConfig from the process environment
// using the given prefix (empty for none, so a .env file reads naturally).
func LoadFromEnvWithPrefix(prefix string) (EnvConfig, error) {
	var e EnvConfig
	if err := envconfig.Process(prefix, &e); err != nil {
		return EnvConfig{}, err
	}
	return e, nil
}

// applyOption appends opt to opts only when cond holds, keeping ToAppConfig's
// override logic declarative: an EnvConfig field left at its zero value
// never overrides AppConfig's constructor defaults.
func applyOption(opts []AppConfigOption, cond bool, opt AppConfigOption) []AppConfigOption {
	if cond {
		return append(opts, opt)
	}
	return opts
}

// ToAppConfig converts the EnvConfig into an AppConfig, applying only the
// fields the environment actually set (non-zero-value) as overrides on top
// of NewAppConfig's defaults.
func (e EnvConfig) ToAppConfig() AppConfig {
	opts := make([]AppConfigOption, 0, 16)

	opts = applyOption(opts, e.Host != "", WithHost(e.Host))
	opts = applyOption(opts, e.Port != 0, WithPort(e.Port))
	opts = applyOption(opts, e.DataDir != "", WithDataDir(e.DataDir))
	opts = applyOption(opts, e.DBURL != "", WithDBURL(e.DBURL))
	opts = applyOption(opts, e.LogLevel != "", WithLogLevel(e.LogLevel))
	opts = applyOption(opts, e.LogFormat != "", WithLogFormat(parseLogFormat(e.LogFormat)))
	opts = applyOption(opts, e.APIKeys != "", WithAPIKeys(ParseAPIKeys(e.APIKeys)))
	opts = applyOption(opts, e.JWTSecret != "", WithJWTSecret(e.JWTSecret))
	opts = applyOption(opts, e.WorkerCount != 0, WithWorkerCount(e.WorkerCount))
	opts = applyOption(opts, e.HTTPCacheDir != "", WithHTTPCacheDir(e.HTTPCacheDir))
	opts = applyOption(opts, e.VectorStoreBackend != "", WithVectorStoreBackend(e.VectorStoreBackend))

	if embedding := e.EmbeddingEndpoint.toEndpoint(); embedding != nil {
		opts = append(opts, WithEmbeddingEndpoint(*embedding))
	}
	if generator := e.GeneratorEndpoint.toEndpoint(); generator != nil {
		opts = append(opts, WithGeneratorEndpoint(*generator))
	}

	opts = append(opts, WithIngestionConfig(e.Ingestion.toIngestionConfig()))
	opts = append(opts, WithQueryConfig(e.Query.toQueryConfig()))
	opts = append(opts, WithPeriodicSyncConfig(e.PeriodicSync.toPeriodicSyncConfig()))

	return NewAppConfigWithOptions(opts...)
}

func (e EndpointEnv) toEndpoint() *Endpoint {
	if e.Model == "" && e.BaseURL == "" {
		return nil
	}
	epOpts := make([]EndpointOption, 0, 7)
	epOpts = applyEndpointOption(epOpts, e.BaseURL != "", WithBaseURL(e.BaseURL))
	epOpts = applyEndpointOption(epOpts, e.Model != "", WithModel(e.Model))
	epOpts = applyEndpointOption(epOpts, e.APIKey != "", WithAPIKey(e.APIKey))
	epOpts = applyEndpointOption(epOpts, e.NumParallelTasks != 0, WithNumParallelTasks(e.NumParallelTasks))
	epOpts = applyEndpointOption(epOpts, e.TimeoutSeconds != 0, WithTimeout(secondsToDuration(e.TimeoutSeconds)))
	epOpts = applyEndpointOption(epOpts, e.MaxRetries != 0, WithMaxRetries(e.MaxRetries))
	epOpts = applyEndpointOption(epOpts, e.InitialDelaySeconds != 0, WithInitialDelay(secondsToDuration(e.InitialDelaySeconds)))
	epOpts = applyEndpointOption(epOpts, e.BackoffFactor != 0, WithBackoffFactor(e.BackoffFactor))
	ep := NewEndpointWithOptions(epOpts...)
	return &ep
}

func applyEndpointOption(opts []EndpointOption, cond bool, opt EndpointOption) []EndpointOption {
	if cond {
		return append(opts, opt)
	}
	return opts
}

func (i IngestionEnv) toIngestionConfig() IngestionConfig {
	opts := make([]IngestionConfigOption, 0, 8)
	if i.ChunkWindowLines != 0 {
		opts = append(opts, WithChunkWindowLines(i.ChunkWindowLines))
	}
	if i.ChunkStrideLines != 0 {
		opts = append(opts, WithChunkStrideLines(i.ChunkStrideLines))
	}
	if i.EmbedRPM != 0 {
		opts = append(opts, WithEmbedRPM(i.EmbedRPM))
	}
	if i.EmbedMaxRetries != 0 {
		opts = append(opts, WithEmbedMaxRetries(i.EmbedMaxRetries))
	}
	if i.EmbedBatchSize != 0 {
		opts = append(opts, WithEmbedBatchSize(i.EmbedBatchSize))
	}
	if i.CallGraphMaxDepth != 0 {
		opts = append(opts, WithCallGraphMaxDepth(i.CallGraphMaxDepth))
	}
	if i.DegradedThreshold != 0 {
		opts = append(opts, WithDegradedThreshold(i.DegradedThreshold))
	}
	if i.MaxEmbedConcurrency != 0 {
		opts = append(opts, WithMaxEmbedConcurrency(i.MaxEmbedConcurrency))
	}
	return NewIngestionConfigWithOptions(opts...)
}

func (q QueryEnv) toQueryConfig() QueryConfig {
	opts := make([]QueryConfigOption, 0, 6)
	if q.VectorScoreThreshold != 0 {
		opts = append(opts, WithVectorScoreThreshold(q.VectorScoreThreshold))
	}
	if q.TopK != 0 {
		opts = append(opts, WithTopK(q.TopK))
	}
	if q.EmbeddingCacheTTLS != 0 {
		opts = append(opts, WithEmbeddingCacheTTLSeconds(q.EmbeddingCacheTTLS))
	}
	if q.QueryCacheTTLS != 0 {
		opts = append(opts, WithQueryCacheTTLSeconds(q.QueryCacheTTLS))
	}
	if q.EmbeddingCacheSize != 0 {
		opts = append(opts, WithEmbeddingCacheSize(q.EmbeddingCacheSize))
	}
	if q.QueryCacheSize != 0 {
		opts = append(opts, WithQueryCacheSize(q.QueryCacheSize))
	}
	return NewQueryConfigWithOptions(opts...)
}

func (p PeriodicSyncEnv) toPeriodicSyncConfig() PeriodicSyncConfig {
	cfg := NewPeriodicSyncConfig().WithEnabled(p.Enabled)
	if p.IntervalSeconds != 0 {
		cfg = cfg.WithIntervalSeconds(p.IntervalSeconds)
	}
	if p.CheckIntervalSeconds != 0 {
		cfg = cfg.WithCheckIntervalSeconds(p.CheckIntervalSeconds)
	}
	if p.RetryAttempts != 0 {
		cfg = cfg.WithRetryAttempts(p.RetryAttempts)
	}
	return cfg
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}

