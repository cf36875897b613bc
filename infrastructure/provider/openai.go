package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/codesense-dev/codesense/domain/search"
)

// embedBatchMax is the largest batch a single embedding request carries.
const embedBatchMax = 64

// embeddingDimensions maps known OpenAI embedding models to their vector
// width, since go-openai's response carries it implicitly per-vector but
// callers need it before the first call (domain/search.Embedder.Dimensions).
var embeddingDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// OpenAIEmbedder implements search.Embedder over the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client        *openai.Client
	model         string
	dimensions    int
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
}

// OpenAIEmbedderOption configures an OpenAIEmbedder.
type OpenAIEmbedderOption func(*OpenAIEmbedder)

// WithEmbedMaxRetries overrides the retry ceiling (default 3).
func WithEmbedMaxRetries(n int) OpenAIEmbedderOption {
	return func(e *OpenAIEmbedder) { e.maxRetries = n }
}

// NewOpenAIEmbedder creates an OpenAIEmbedder for the given model, wrapping
// client (expected to carry a RateLimitedTransport, see ratelimit.go).
func NewOpenAIEmbedder(client *openai.Client, model string, opts ...OpenAIEmbedderOption) *OpenAIEmbedder {
	e := &OpenAIEmbedder{
		client:        client,
		model:         model,
		dimensions:    embeddingDimensions[model],
		maxRetries:    3,
		initialDelay:  20 * time.Second,
		backoffFactor: 2.0,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dimensions returns the embedding width for this provider's model.
func (e *OpenAIEmbedder) Dimensions() int { return e.dimensions }

// EmbedOne embeds a single text.
func (e *OpenAIEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds up to embedBatchMax texts per request, splitting larger
// inputs into sequential batches; the rate limiter, not goroutine fan-out,
// bounds embedding throughput here.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var out [][]float32
	for start := 0; start < len(texts); start += embedBatchMax {
		end := start + embedBatchMax
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	req := openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: texts,
	}

	var resp openai.EmbeddingResponse
	var err error
	err = withRetry(ctx, e.maxRetries, e.initialDelay, e.backoffFactor, func() error {
		resp, err = e.client.CreateEmbeddings(ctx, req)
		return err
	})
	if err != nil {
		return nil, wrapOpenAIError("embed", err)
	}

	vecs := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vecs[i] = d.Embedding
	}
	return vecs, nil
}

var _ search.Embedder = (*OpenAIEmbedder)(nil)

// OpenAIGenerator implements search.Generator over OpenAI chat completions.
type OpenAIGenerator struct {
	client        *openai.Client
	model         string
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
}

// NewOpenAIGenerator creates an OpenAIGenerator for the given chat model.
func NewOpenAIGenerator(client *openai.Client, model string) *OpenAIGenerator {
	return &OpenAIGenerator{
		client:        client,
		model:         model,
		maxRetries:    3,
		initialDelay:  20 * time.Second,
		backoffFactor: 2.0,
	}
}

// Generate produces a single-turn completion. ctx is bounded to 60s here
// so a wedged upstream can't stall a query.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	var resp openai.ChatCompletionResponse
	var err error
	err = withRetry(ctx, g.maxRetries, g.initialDelay, g.backoffFactor, func() error {
		resp, err = g.client.CreateChatCompletion(ctx, req)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneratorUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrGeneratorUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}

var _ search.Generator = (*OpenAIGenerator)(nil)

// withRetry runs fn with exponential backoff, honoring ctx cancellation
// between attempts.
func withRetry(ctx context.Context, maxRetries int, initialDelay time.Duration, backoffFactor float64, fn func() error) error {
	delay := initialDelay
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}

		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * backoffFactor)
			}
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// isRetryable determines if an error should be retried.
func isRetryable(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	var reqErr *openai.RequestError
	return errors.As(err, &reqErr)
}

func wrapOpenAIError(operation string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{Operation: operation, StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message, Cause: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &ProviderError{Operation: operation, StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error(), Cause: err}
	}
	return &ProviderError{Operation: operation, Message: err.Error(), Cause: err}
}
