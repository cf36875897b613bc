package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbeddingServer returns an httptest.Server mimicking the OpenAI
// embeddings endpoint, tracking request count via counter.
func fakeEmbeddingServer(t *testing.T, counter *atomic.Int64) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		counter.Add(1)

		var body struct {
			Input interface{} `json:"input"`
			Model string      `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		var texts []string
		switch v := body.Input.(type) {
		case string:
			texts = []string{v}
		case []interface{}:
			for _, item := range v {
				texts = append(texts, item.(string))
			}
		}

		data := make([]map[string]interface{}, len(texts))
		for i := range texts {
			data[i] = map[string]interface{}{
				"object":    "embedding",
				"index":     i,
				"embedding": []float32{0.1, 0.2, 0.3},
			}
		}

		resp := map[string]interface{}{
			"object": "list",
			"data":   data,
			"model":  body.Model,
			"usage":  map[string]int{"prompt_tokens": len(texts) * 4, "total_tokens": len(texts) * 4},
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func newTestClient(baseURL string) *openai.Client {
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = baseURL
	return openai.NewClientWithConfig(cfg)
}

func TestOpenAIEmbedder_EmbedBatchSplitsAcrossCap(t *testing.T) {
	var counter atomic.Int64
	srv := fakeEmbeddingServer(t, &counter)
	defer srv.Close()

	embedder := NewOpenAIEmbedder(newTestClient(srv.URL), "text-embedding-3-small")

	texts := make([]string, embedBatchMax+1)
	for i := range texts {
		texts[i] = "text"
	}

	vecs, err := embedder.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vecs, len(texts))
	assert.Equal(t, int64(2), counter.Load())
}

func TestOpenAIEmbedder_EmbedEmptyReturnsNil(t *testing.T) {
	var counter atomic.Int64
	srv := fakeEmbeddingServer(t, &counter)
	defer srv.Close()

	embedder := NewOpenAIEmbedder(newTestClient(srv.URL), "text-embedding-3-small")
	vecs, err := embedder.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
	assert.Zero(t, counter.Load())
}

func TestOpenAIEmbedder_Dimensions(t *testing.T) {
	embedder := NewOpenAIEmbedder(nil, "text-embedding-3-small")
	assert.Equal(t, 1536, embedder.Dimensions())
}

func TestOpenAIGenerator_GenerateReturnsContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4",
			"choices": []map[string]interface{}{
				{"index": 0, "message": map[string]string{"role": "assistant", "content": "hello"}, "finish_reason": "stop"},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	gen := NewOpenAIGenerator(newTestClient(srv.URL), "gpt-4")
	content, err := gen.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello", content)
}

func TestOpenAIGenerator_NoChoicesReturnsGeneratorUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{"id": "x", "object": "chat.completion", "choices": []map[string]interface{}{}}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	gen := NewOpenAIGenerator(newTestClient(srv.URL), "gpt-4")
	_, err := gen.Generate(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrGeneratorUnavailable)
}
