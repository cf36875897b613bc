package provider

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/codesense-dev/codesense/domain/search"
)

// hugotDimensions is the vector width of the local embedding model
// (st-codesearch-distilroberta-base).
const hugotDimensions = 768

// localSingleton holds the process-wide ONNX Runtime session and pipeline.
// ORT only allows one active session per process, so every HugotEmbedder
// shares it; the mutex serializes both initialization and inference (ORT
// is not thread-safe).
var localSingleton struct {
	session  *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline
	mu       sync.Mutex
	ready    bool
}

// HugotEmbedder implements search.Embedder over a local ONNX model via the
// hugot Go backend — no network call, no rate limiting. It does not split
// Go/ORT backends behind build tags or support an embedded-model build; it
// always loads from a model directory on disk, a deliberate scope trim
// documented in DESIGN.md.
type HugotEmbedder struct {
	modelDir string
}

// NewHugotEmbedder creates a HugotEmbedder loading its model from modelDir
// (a directory containing tokenizer.json and the ONNX weights).
func NewHugotEmbedder(modelDir string) *HugotEmbedder {
	return &HugotEmbedder{modelDir: modelDir}
}

// Dimensions returns the local model's embedding width.
func (h *HugotEmbedder) Dimensions() int { return hugotDimensions }

func (h *HugotEmbedder) initialize() error {
	localSingleton.mu.Lock()
	defer localSingleton.mu.Unlock()

	if localSingleton.ready {
		return nil
	}

	if _, err := os.Stat(filepath.Join(h.modelDir, "tokenizer.json")); err != nil {
		return fmt.Errorf("no model found in %s: %w", h.modelDir, err)
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return fmt.Errorf("create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: h.modelDir,
		Name:      "codesense-embeddings",
		Options:   []hugot.FeatureExtractionOption{pipelines.WithNormalization()},
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		_ = session.Destroy()
		return fmt.Errorf("create feature extraction pipeline: %w", err)
	}

	localSingleton.session = session
	localSingleton.pipeline = pipeline
	localSingleton.ready = true
	return nil
}

// EmbedOne embeds a single text.
func (h *HugotEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := h.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts using the local model, holding the process-wide
// session mutex for the duration of inference.
func (h *HugotEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := h.initialize(); err != nil {
		return nil, fmt.Errorf("initialize hugot: %w", err)
	}

	localSingleton.mu.Lock()
	defer localSingleton.mu.Unlock()

	result, err := localSingleton.pipeline.RunPipeline(texts)
	if err != nil {
		return nil, fmt.Errorf("run embedding pipeline: %w", err)
	}
	return result.Embeddings, nil
}

// Close is a no-op: the ONNX Runtime session is process-global and shared
// by every HugotEmbedder, so it is not released here.
func (h *HugotEmbedder) Close() error {
	return nil
}

var _ search.Embedder = (*HugotEmbedder)(nil)
