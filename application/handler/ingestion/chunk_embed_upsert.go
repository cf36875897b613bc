package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/codesense-dev/codesense/application/handler"
	"github.com/codesense-dev/codesense/domain/chunk"
	"github.com/codesense-dev/codesense/domain/ingestion"
	"github.com/codesense-dev/codesense/domain/search"
	"github.com/codesense-dev/codesense/domain/taskqueue"
	"github.com/codesense-dev/codesense/infrastructure/cache"
	"github.com/codesense-dev/codesense/infrastructure/chunking"
	"github.com/codesense-dev/codesense/infrastructure/persistence"
)

// degradedThreshold marks a run degraded, not failed, when more than this
// fraction of the run's chunks fail to embed.
const degradedThreshold = 0.5

// ChunkEmbedUpsertHandler executes ingestion.StageChunkEmbedUpsert: chunk
// every file, embed the chunks (through the embedding cache), persist them,
// and upsert their vectors into the vector store.
type ChunkEmbedUpsertHandler struct {
	runs        persistence.RunStore
	tasks       persistence.TaskStore
	chunks      persistence.ChunkStore
	embedder    search.Embedder
	cache       *cache.EmbeddingCache
	vectors     search.VectorStore
	strategy    chunking.Strategy
	batchSize   int
	concurrency int
	logger      *slog.Logger
}

// NewChunkEmbedUpsertHandler creates a ChunkEmbedUpsertHandler. batchSize
// bounds how many chunks are embedded per provider call; concurrency bounds
// how many batches are embedded at once (MAX_EMBED_CONCURRENCY).
func NewChunkEmbedUpsertHandler(
	runs persistence.RunStore,
	tasks persistence.TaskStore,
	chunks persistence.ChunkStore,
	embedder search.Embedder,
	embedCache *cache.EmbeddingCache,
	vectors search.VectorStore,
	batchSize int,
	concurrency int,
	logger *slog.Logger,
) *ChunkEmbedUpsertHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if batchSize <= 0 {
		batchSize = 64
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &ChunkEmbedUpsertHandler{
		runs:        runs,
		tasks:       tasks,
		chunks:      chunks,
		embedder:    embedder,
		cache:       embedCache,
		vectors:     vectors,
		strategy:    chunking.NewLineWindowChunker(chunking.DefaultLineWindowParams()),
		batchSize:   batchSize,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Execute implements handler.Handler.
func (h *ChunkEmbedUpsertHandler) Execute(ctx context.Context, payload map[string]any) error {
	repoID, err := handler.ExtractInt64(payload, "repo_id")
	if err != nil {
		return err
	}
	commitSHA, err := handler.ExtractString(payload, "commit_sha")
	if err != nil {
		return err
	}
	runID, err := handler.ExtractInt64(payload, "run_id")
	if err != nil {
		return err
	}
	clonePath, err := handler.ExtractString(payload, "clone_path")
	if err != nil {
		return err
	}

	var allChunks []chunk.Chunk
	var failed int

	err = filepath.WalkDir(clonePath, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}

		relPath, relErr := filepath.Rel(clonePath, path)
		if relErr != nil {
			return relErr
		}
		relPath = filepath.ToSlash(relPath)

		info, infoErr := d.Info()
		if infoErr != nil {
			return infoErr
		}
		if chunking.ShouldSkip(relPath, info.Size()) {
			return nil
		}

		source, readErr := os.ReadFile(path)
		if readErr != nil {
			h.logger.Warn("failed to read file for chunking", slog.String("path", relPath), slog.String("error", readErr.Error()))
			return nil
		}

		fileChunks := h.strategy.Chunk(ctx, repoID, commitSHA, relPath, source)
		for _, c := range fileChunks {
			if !c.Valid() {
				continue
			}
			allChunks = append(allChunks, c)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("chunk_embed_upsert: walk %s: %w", clonePath, err)
	}

	var batches [][]chunk.Chunk
	for start := 0; start < len(allChunks); start += h.batchSize {
		end := start + h.batchSize
		if end > len(allChunks) {
			end = len(allChunks)
		}
		batches = append(batches, allChunks[start:end])
	}

	embeddedBatches := make([][]chunk.Chunk, len(batches))
	var mu sync.Mutex
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(h.concurrency)
	for i, batch := range batches {
		i, batch := i, batch
		group.Go(func() error {
			embedded, embedErr := h.embedBatch(gctx, batch)
			if embedErr != nil {
				h.logger.Warn("batch embedding failed", slog.String("error", embedErr.Error()))
				mu.Lock()
				failed += len(batch)
				mu.Unlock()
				return nil
			}
			embeddedBatches[i] = embedded
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return fmt.Errorf("chunk_embed_upsert: embed batches: %w", err)
	}

	var points []search.Point
	for _, embedded := range embeddedBatches {
		for _, c := range embedded {
			if !c.HasVector() {
				failed++
				continue
			}
			if _, err := h.chunks.Upsert(ctx, c); err != nil {
				return fmt.Errorf("chunk_embed_upsert: upsert chunk %s: %w", c.ChunkID(), err)
			}
			if err := h.chunks.MarkEmbedded(ctx, c.ChunkID()); err != nil {
				return fmt.Errorf("chunk_embed_upsert: mark embedded %s: %w", c.ChunkID(), err)
			}
			points = append(points, search.Point{
				ChunkID:   c.ChunkID(),
				RepoID:    c.RepoID(),
				CommitSHA: c.CommitSHA(),
				FilePath:  c.FilePath(),
				StartLine: c.StartLine(),
				EndLine:   c.EndLine(),
				Content:   c.Content(),
				Vector:    c.Vector(),
			})
		}
	}

	if len(points) > 0 {
		if err := h.vectors.Upsert(ctx, search.DefaultCollection, points); err != nil {
			return fmt.Errorf("chunk_embed_upsert: upsert vectors: %w", err)
		}
	}

	if len(allChunks) > 0 && float64(failed)/float64(len(allChunks)) > degradedThreshold {
		if err := h.runs.MarkDegraded(ctx, runID); err != nil {
			return fmt.Errorf("chunk_embed_upsert: mark degraded: %w", err)
		}
	}

	if err := h.runs.AdvanceStage(ctx, runID, ingestion.StageChunkEmbedUpsert); err != nil {
		return fmt.Errorf("chunk_embed_upsert: advance stage: %w", err)
	}

	next := taskqueue.New(ingestion.StageArchiveManifest, taskqueue.PriorityNormal, map[string]any{
		"repo_id":      repoID,
		"commit_sha":   commitSHA,
		"run_id":       runID,
		"clone_path":   clonePath,
		"chunks_count": len(points),
	})
	if _, err := h.tasks.Enqueue(ctx, next); err != nil {
		return fmt.Errorf("chunk_embed_upsert: enqueue archive_manifest task: %w", err)
	}

	return nil
}

// embedBatch resolves each chunk's vector from the embedding cache where
// possible, embedding only the cache misses in a single provider call.
func (h *ChunkEmbedUpsertHandler) embedBatch(ctx context.Context, batch []chunk.Chunk) ([]chunk.Chunk, error) {
	out := make([]chunk.Chunk, len(batch))
	copy(out, batch)

	var misses []string
	missIdx := make([]int, 0, len(batch))
	for i, c := range batch {
		if v, ok := h.cache.Get(c.Content()); ok {
			out[i] = c.WithVector(v)
			continue
		}
		misses = append(misses, c.Content())
		missIdx = append(missIdx, i)
	}

	if len(misses) == 0 {
		return out, nil
	}

	vectors, err := h.embedder.EmbedBatch(ctx, misses)
	if err != nil {
		return out, fmt.Errorf("embed batch: %w", err)
	}
	for j, idx := range missIdx {
		if j >= len(vectors) {
			break
		}
		out[idx] = out[idx].WithVector(vectors[j])
		h.cache.Set(batch[idx].Content(), vectors[j])
	}
	return out, nil
}

var _ handler.Handler = (*ChunkEmbedUpsertHandler)(nil)
