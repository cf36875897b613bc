package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/codesense-dev/codesense/domain/taskqueue"
	"github.com/codesense-dev/codesense/internal/database"
	"gorm.io/gorm"
)

// TaskStore implements the durable work queue the ingestion coordinator
// (C11) consumes from.
type TaskStore struct {
	database.Repository[taskqueue.Task, TaskModel]
}

// NewTaskStore creates a TaskStore.
func NewTaskStore(db database.Database) TaskStore {
	return TaskStore{
		Repository: database.NewRepository[taskqueue.Task, TaskModel](db, TaskMapper{}, "task"),
	}
}

// Enqueue inserts a task unless one with the same dedup key is already
// queued, in which case it returns the existing task unchanged: the same
// (stage, repo, commit) is never enqueued twice while a prior instance is
// still pending.
func (s TaskStore) Enqueue(ctx context.Context, t taskqueue.Task) (taskqueue.Task, error) {
	existing, err := s.FindOne(ctx, database.NewQuery().Equal("dedup_key", t.DedupKey()))
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return taskqueue.Task{}, fmt.Errorf("enqueue task: %w", err)
	}

	model := s.Mapper().ToModel(t)
	if createErr := s.DB(ctx).Create(&model).Error; createErr != nil {
		return taskqueue.Task{}, fmt.Errorf("enqueue task: %w", createErr)
	}
	return s.Mapper().ToDomain(model), nil
}

// Dequeue claims and removes the highest-priority oldest task in one
// transaction, or returns ErrNotFound if the queue is empty. Delivery is
// at-most-once: the row is deleted before the task runs, so a worker crash
// between claim and completion loses the task and nothing redelivers it.
func (s TaskStore) Dequeue(ctx context.Context) (taskqueue.Task, error) {
	var model TaskModel
	txErr := s.DB(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Order("priority DESC, id ASC").First(&model).Error
		if err != nil {
			return err
		}
		return tx.Delete(&TaskModel{}, model.ID).Error
	})
	if txErr != nil {
		if errors.Is(txErr, gorm.ErrRecordNotFound) {
			return taskqueue.Task{}, database.ErrNotFound
		}
		return taskqueue.Task{}, fmt.Errorf("dequeue task: %w", txErr)
	}
	return s.Mapper().ToDomain(model), nil
}

// DequeueStage is Dequeue scoped to a single stage, used by stage-specific
// worker pools.
func (s TaskStore) DequeueStage(ctx context.Context, stage string) (taskqueue.Task, error) {
	var model TaskModel
	txErr := s.DB(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("stage = ?", stage).Order("priority DESC, id ASC").First(&model).Error
		if err != nil {
			return err
		}
		return tx.Delete(&TaskModel{}, model.ID).Error
	})
	if txErr != nil {
		if errors.Is(txErr, gorm.ErrRecordNotFound) {
			return taskqueue.Task{}, database.ErrNotFound
		}
		return taskqueue.Task{}, fmt.Errorf("dequeue task for stage %s: %w", stage, txErr)
	}
	return s.Mapper().ToDomain(model), nil
}
