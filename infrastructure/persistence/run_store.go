package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/codesense-dev/codesense/domain/ingestion"
	"github.com/codesense-dev/codesense/internal/database"
)

// RunStore implements the IngestionRun half of the C2 relational store.
type RunStore struct {
	database.Repository[ingestion.Run, IngestionRunModel]
}

// NewRunStore creates a RunStore.
func NewRunStore(db database.Database) RunStore {
	return RunStore{
		Repository: database.NewRepository[ingestion.Run, IngestionRunModel](db, RunMapper{}, "ingestion_run"),
	}
}

// Create inserts a new PENDING run.
func (s RunStore) Create(ctx context.Context, run ingestion.Run) (ingestion.Run, error) {
	model := s.Mapper().ToModel(run)
	if err := s.DB(ctx).Create(&model).Error; err != nil {
		return ingestion.Run{}, fmt.Errorf("create ingestion run: %w", err)
	}
	return s.Mapper().ToDomain(model), nil
}

// ClaimPending atomically transitions the run at id from PENDING to RUNNING,
// recording startedAt. It returns false if the row was not in PENDING state
// (already claimed by a concurrent worker, or terminal), guaranteeing
// at-most-one RUNNING run per (repo, commit).
func (s RunStore) ClaimPending(ctx context.Context, id int64, startedAt time.Time) (bool, error) {
	result := s.DB(ctx).Model(&IngestionRunModel{}).
		Where("id = ? AND status = ?", id, string(ingestion.StatusPending)).
		Updates(map[string]any{
			"status":     string(ingestion.StatusRunning),
			"stage":      string(ingestion.StageClone),
			"started_at": startedAt,
		})
	if result.Error != nil {
		return false, fmt.Errorf("claim pending run %d: %w", id, result.Error)
	}
	return result.RowsAffected == 1, nil
}

// AdvanceStage persists the run's current stage.
func (s RunStore) AdvanceStage(ctx context.Context, id int64, stage ingestion.Stage) error {
	result := s.DB(ctx).Model(&IngestionRunModel{}).Where("id = ?", id).Update("stage", string(stage))
	if result.Error != nil {
		return fmt.Errorf("advance run %d to stage %s: %w", id, stage, result.Error)
	}
	return nil
}

// MarkDegraded sets the degraded flag on the run.
func (s RunStore) MarkDegraded(ctx context.Context, id int64) error {
	result := s.DB(ctx).Model(&IngestionRunModel{}).Where("id = ?", id).Update("degraded", true)
	if result.Error != nil {
		return fmt.Errorf("mark run %d degraded: %w", id, result.Error)
	}
	return nil
}

// Finish transitions the run to a terminal status (COMPLETED or FAILED).
func (s RunStore) Finish(ctx context.Context, id int64, status ingestion.Status, finishedAt time.Time, errStr string) error {
	result := s.DB(ctx).Model(&IngestionRunModel{}).Where("id = ?", id).Updates(map[string]any{
		"status":      string(status),
		"finished_at": finishedAt,
		"error":       errStr,
	})
	if result.Error != nil {
		return fmt.Errorf("finish run %d: %w", id, result.Error)
	}
	return nil
}

// LatestForRepo returns the most recent run for a repository, or ErrNotFound.
func (s RunStore) LatestForRepo(ctx context.Context, repoID int64) (ingestion.Run, error) {
	q := database.NewQuery().Equal("repo_id", repoID).OrderDesc("id").Limit(1)
	return s.FindOne(ctx, q)
}

// Get returns the run at id, or ErrNotFound.
func (s RunStore) Get(ctx context.Context, id int64) (ingestion.Run, error) {
	return s.FindOne(ctx, database.NewQuery().Equal("id", id))
}

// SetCommitSHA records the commit a run resolved to once its clone stage
// completes: a run is created before the target commit is known (the
// triggering caller names a repository, not a commit), so commit_sha starts
// empty and is filled in here.
func (s RunStore) SetCommitSHA(ctx context.Context, id int64, commitSHA string) error {
	result := s.DB(ctx).Model(&IngestionRunModel{}).Where("id = ?", id).Update("commit_sha", commitSHA)
	if result.Error != nil {
		return fmt.Errorf("set commit sha for run %d: %w", id, result.Error)
	}
	return nil
}
