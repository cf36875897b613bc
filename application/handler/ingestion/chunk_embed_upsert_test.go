package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/codesense-dev/codesense/domain/ingestion"
	"github.com/codesense-dev/codesense/domain/search"
	"github.com/codesense-dev/codesense/infrastructure/cache"
	"github.com/codesense-dev/codesense/infrastructure/persistence"
	"github.com/codesense-dev/codesense/internal/testdb"
)

// fakeEmbedder returns a fixed-dimension vector per text and tracks the
// highest number of EmbedBatch calls in flight at once, so tests can assert
// the handler actually bounds concurrency rather than firing every batch at
// the embedder simultaneously.
type fakeEmbedder struct {
	inFlight    int32
	maxInFlight int32
}

func (f *fakeEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	cur := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		max := atomic.LoadInt32(&f.maxInFlight)
		if cur <= max || atomic.CompareAndSwapInt32(&f.maxInFlight, max, cur) {
			break
		}
	}

	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int { return 3 }

type fakeVectorStore struct {
	upserted int
}

func (v *fakeVectorStore) Upsert(ctx context.Context, collection string, points []search.Point) error {
	v.upserted += len(points)
	return nil
}

func (v *fakeVectorStore) Search(ctx context.Context, collection string, vector []float32, filter search.Filter, limit int, scoreThreshold float64) ([]search.Hit, error) {
	return nil, nil
}

func (v *fakeVectorStore) Delete(ctx context.Context, collection string, filter search.Filter) error {
	return nil
}

func writeTestFile(t *testing.T, dir, relPath, content string) {
	t.Helper()
	full := filepath.Join(dir, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}

func TestChunkEmbedUpsertHandler_BoundsConcurrency(t *testing.T) {
	db := testdb.New(t)
	runs := persistence.NewRunStore(db)
	tasks := persistence.NewTaskStore(db)
	chunks := persistence.NewChunkStore(db)

	run, err := runs.Create(context.Background(), ingestion.NewPending(1, "deadbeef"))
	if err != nil {
		t.Fatalf("create run: %v", err)
	}

	cloneDir := t.TempDir()
	var lines string
	for i := 0; i < 400; i++ {
		lines += fmt.Sprintf("line %d\n", i)
	}
	for i := 0; i < 8; i++ {
		writeTestFile(t, cloneDir, fmt.Sprintf("pkg/file%d.go", i), lines)
	}

	embedder := &fakeEmbedder{}
	vectors := &fakeVectorStore{}
	embedCache := cache.NewEmbeddingCache(1024, 0)

	handler := NewChunkEmbedUpsertHandler(runs, tasks, chunks, embedder, embedCache, vectors, 4, 2, nil)

	payload := map[string]any{
		"repo_id":    int64(1),
		"commit_sha": "deadbeef",
		"run_id":     run.ID(),
		"clone_path": cloneDir,
	}
	if err := handler.Execute(context.Background(), payload); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if vectors.upserted == 0 {
		t.Fatalf("expected chunks to be upserted into the vector store")
	}
	if atomic.LoadInt32(&embedder.maxInFlight) > 2 {
		t.Fatalf("expected at most 2 concurrent embed batches, saw %d", embedder.maxInFlight)
	}

	archiveTask, err := tasks.Dequeue(context.Background())
	if err != nil {
		t.Fatalf("dequeue archive task: %v", err)
	}
	if archiveTask.Stage() != ingestion.StageArchiveManifest {
		t.Fatalf("expected archive_manifest task, got %s", archiveTask.Stage())
	}
}
