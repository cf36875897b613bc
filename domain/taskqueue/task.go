// Package taskqueue provides the durable work-queue domain types the
// ingestion coordinator (C11) consumes from: a dedup-keyed queue in which
// existence implies pending. A task is removed when a worker claims it, so
// delivery is at-most-once.
package taskqueue

import (
	"fmt"
	"maps"
	"time"

	"github.com/codesense-dev/codesense/domain/ingestion"
)

// Priority spaces task priority levels far apart so batch offsets never
// cause a lower priority level to exceed a higher one.
type Priority int

// Priority values.
const (
	PriorityBackground Priority = 1000
	PriorityNormal     Priority = 2000
	PriorityUserRequested Priority = 5000
)

// Task is a unit of work waiting to be claimed by an ingestion worker.
type Task struct {
	id        int64
	dedupKey  string
	stage     ingestion.Stage
	priority  int
	payload   map[string]any
	createdAt time.Time
	updatedAt time.Time
}

// New creates a Task for the given stage and payload. The dedup key is
// derived from (stage, repo_id, commit_sha) so the same (repo, commit, stage)
// is never enqueued twice while a prior instance is still pending.
func New(stage ingestion.Stage, priority Priority, payload map[string]any) Task {
	p := copyPayload(payload)
	return Task{
		dedupKey: dedupKey(stage, p),
		stage:    stage,
		priority: int(priority),
		payload:  p,
	}
}

// Reconstruct recreates a Task from persistence.
func Reconstruct(id int64, dedupKey string, stage ingestion.Stage, priority int, payload map[string]any, createdAt, updatedAt time.Time) Task {
	return Task{
		id:        id,
		dedupKey:  dedupKey,
		stage:     stage,
		priority:  priority,
		payload:   copyPayload(payload),
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// ID returns the queue row id.
func (t Task) ID() int64 { return t.id }

// DedupKey returns the deduplication key.
func (t Task) DedupKey() string { return t.dedupKey }

// Stage returns the ingestion stage this task advances.
func (t Task) Stage() ingestion.Stage { return t.stage }

// Priority returns the scheduling priority.
func (t Task) Priority() int { return t.priority }

// Payload returns a copy of the task payload.
func (t Task) Payload() map[string]any { return copyPayload(t.payload) }

// CreatedAt returns when the task was enqueued.
func (t Task) CreatedAt() time.Time { return t.createdAt }

// UpdatedAt returns when the task was last touched.
func (t Task) UpdatedAt() time.Time { return t.updatedAt }

// WithID returns a copy with the given id.
func (t Task) WithID(id int64) Task {
	t.id = id
	return t
}

func dedupKey(stage ingestion.Stage, payload map[string]any) string {
	repoID := payload["repo_id"]
	commit := payload["commit_sha"]
	return fmt.Sprintf("%s:%v:%v", stage, repoID, commit)
}

func copyPayload(payload map[string]any) map[string]any {
	if payload == nil {
		return make(map[string]any)
	}
	out := make(map[string]any, len(payload))
	maps.Copy(out, payload)
	return out
}
