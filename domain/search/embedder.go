// Package search holds the outbound capability contracts the hybrid query
// engine depends on (embedder, generator, vector index) and the value types
// that flow between the query router, the static query engine, and the
// hybrid query service.
package search

import "context"

// Embedder maps text to a fixed-dimension dense vector. D is stable per
// model instance: 768 for the local hugot model, 1536 or 3072 for the
// OpenAI embedding models.
type Embedder interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// Generator is a single-turn text-completion capability. Streaming is a
// presentation concern and is not part of this contract.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
