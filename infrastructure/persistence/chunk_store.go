package persistence

import (
	"context"
	"fmt"

	"github.com/codesense-dev/codesense/domain/chunk"
	"github.com/codesense-dev/codesense/internal/database"
	"gorm.io/gorm/clause"
)

// ChunkStore implements the Chunk half of the C2 relational store.
type ChunkStore struct {
	database.Repository[chunk.Chunk, ChunkModel]
}

// NewChunkStore creates a ChunkStore.
func NewChunkStore(db database.Database) ChunkStore {
	return ChunkStore{
		Repository: database.NewRepository[chunk.Chunk, ChunkModel](db, ChunkMapper{}, "chunk"),
	}
}

// Upsert inserts or replaces a chunk row keyed by its deterministic
// chunk_id, so re-ingesting an unchanged file is a no-op write and a
// changed file's chunk overwrites the stale row in place, keeping
// re-ingestion idempotent.
func (s ChunkStore) Upsert(ctx context.Context, c chunk.Chunk) (chunk.Chunk, error) {
	model := s.Mapper().ToModel(c)
	err := s.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chunk_id"}},
		UpdateAll: true,
	}).Create(&model).Error
	if err != nil {
		return chunk.Chunk{}, fmt.Errorf("upsert chunk %s: %w", c.ChunkID(), err)
	}
	return s.Mapper().ToDomain(model), nil
}

// MarkEmbedded flips the embedded flag once the vector store accepts the
// chunk's vector.
func (s ChunkStore) MarkEmbedded(ctx context.Context, chunkID string) error {
	result := s.DB(ctx).Model(&ChunkModel{}).Where("chunk_id = ?", chunkID).Update("embedded", true)
	if result.Error != nil {
		return fmt.Errorf("mark chunk %s embedded: %w", chunkID, result.Error)
	}
	return nil
}

// FindByFile returns every chunk for a file in a (repo, commit) partition.
func (s ChunkStore) FindByFile(ctx context.Context, repoID int64, commitSHA, filePath string) ([]chunk.Chunk, error) {
	q := database.NewQuery().
		Equal("repo_id", repoID).
		Equal("commit_sha", commitSHA).
		Equal("file_path", filePath).
		OrderAsc("start_line")
	return s.Find(ctx, q)
}

// PendingEmbedding returns chunks not yet marked embedded, in batches
// bounded by batchSize (the C10 embedder's ≤64 batch size).
func (s ChunkStore) PendingEmbedding(ctx context.Context, repoID int64, commitSHA string, batchSize int) ([]chunk.Chunk, error) {
	q := database.NewQuery().
		Equal("repo_id", repoID).
		Equal("commit_sha", commitSHA).
		Equal("embedded", false).
		Limit(batchSize)
	return s.Find(ctx, q)
}
