package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/codesense-dev/codesense/application/handler"
	"github.com/codesense-dev/codesense/domain/ingestion"
	"github.com/codesense-dev/codesense/domain/taskqueue"
	"github.com/codesense-dev/codesense/infrastructure/persistence"
	"github.com/codesense-dev/codesense/internal/database"
)

// Worker polls the task queue and dispatches each task to its stage
// handler, keyed on ingestion.Stage rather than an open-ended operation
// type.
type Worker struct {
	tasks      persistence.TaskStore
	runs       persistence.RunStore
	registry   *handler.Registry
	logger     *slog.Logger
	pollPeriod time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewWorker creates a Worker.
func NewWorker(tasks persistence.TaskStore, runs persistence.RunStore, registry *handler.Registry, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{tasks: tasks, runs: runs, registry: registry, logger: logger, pollPeriod: time.Second}
}

// WithPollPeriod sets the poll period between empty-queue checks.
func (w *Worker) WithPollPeriod(d time.Duration) *Worker {
	w.pollPeriod = d
	return w
}

// Start begins processing tasks from the queue in a background goroutine.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()

	w.logger.Info("ingestion worker started")
}

// Stop gracefully shuts down the worker, waiting for the in-flight task.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
	w.logger.Info("ingestion worker stopped")
}

func (w *Worker) run(ctx context.Context) {
	ticker := time.NewTicker(w.pollPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.processNext(ctx); err != nil && ctx.Err() == nil {
				w.logger.Error("error processing task", slog.String("error", err.Error()))
			}
		}
	}
}

func (w *Worker) processNext(ctx context.Context) error {
	t, err := w.tasks.Dequeue(ctx)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil
		}
		return err
	}
	return w.processTask(ctx, t)
}

func (w *Worker) processTask(ctx context.Context, t taskqueue.Task) error {
	start := time.Now()
	w.logger.Info("processing task",
		slog.Int64("task_id", t.ID()),
		slog.String("stage", string(t.Stage())),
	)

	h, err := w.registry.Handler(t.Stage())
	if err != nil {
		w.logger.Error("no handler for stage", slog.Int64("task_id", t.ID()), slog.String("stage", string(t.Stage())))
		return nil
	}

	if execErr := w.executeWithRecovery(ctx, h, t); execErr != nil {
		w.logger.Error("task execution failed",
			slog.Int64("task_id", t.ID()),
			slog.String("stage", string(t.Stage())),
			slog.String("error", execErr.Error()),
		)
		w.failRun(ctx, t, execErr)
		return nil
	}

	w.logger.Info("task completed",
		slog.Int64("task_id", t.ID()),
		slog.String("stage", string(t.Stage())),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (w *Worker) executeWithRecovery(ctx context.Context, h handler.Handler, t taskqueue.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Execute(ctx, t.Payload())
}

// failRun marks the run named in the task payload as FAILED: the first
// unrecoverable error in a stage terminates the run outright (as opposed
// to per-chunk/per-file degradation, which a handler
// absorbs itself and never surfaces as a task error).
func (w *Worker) failRun(ctx context.Context, t taskqueue.Task, taskErr error) {
	payload := t.Payload()
	runID, ok := extractRunID(payload)
	if !ok {
		return
	}
	if err := w.runs.Finish(ctx, runID, ingestion.StatusFailed, time.Now(), taskErr.Error()); err != nil {
		w.logger.Error("failed to mark run failed", slog.Int64("run_id", runID), slog.String("error", err.Error()))
	}
}

// ProcessOne processes a single task synchronously, for tests.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	t, err := w.tasks.Dequeue(ctx)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, w.processTask(ctx, t)
}

func extractRunID(payload map[string]any) (int64, bool) {
	val, ok := payload["run_id"]
	if !ok {
		return 0, false
	}
	switch v := val.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
