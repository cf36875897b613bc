// Package ingestion holds the IngestionRun value type and the stage state
// machine driven by the ingestion coordinator (C11).
package ingestion

import "time"

// Status is the run's lifecycle state.
type Status string

// Status values. Advances monotonically: PENDING -> RUNNING -> COMPLETED|FAILED.
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Stage names the coordinator commits progress against. These are recorded
// on the run for observability; they are not a separate persisted status.
type Stage string

// Stage values, in pipeline order.
const (
	StageClone            Stage = "ingest.clone"
	StageParseIndex       Stage = "ingest.parse_index"
	StageResolveCallgraph Stage = "ingest.resolve_callgraph"
	StageChunkEmbedUpsert Stage = "ingest.chunk_embed_upsert"
	StageArchiveManifest  Stage = "ingest.archive_manifest"
)

// Stages lists the pipeline stages in execution order.
var Stages = []Stage{
	StageClone,
	StageParseIndex,
	StageResolveCallgraph,
	StageChunkEmbedUpsert,
	StageArchiveManifest,
}

// Run is one attempt to process a specific (repo, commit) through the
// ingestion pipeline.
type Run struct {
	id         int64
	repoID     int64
	commitSHA  string
	status     Status
	stage      Stage
	degraded   bool
	startedAt  time.Time
	finishedAt time.Time
	err        string
}

// NewPending creates a new, unpersisted Run in PENDING state.
func NewPending(repoID int64, commitSHA string) Run {
	return Run{
		repoID:    repoID,
		commitSHA: commitSHA,
		status:    StatusPending,
	}
}

// Reconstruct recreates a Run from persistence.
func Reconstruct(id, repoID int64, commitSHA string, status Status, stage Stage, degraded bool, startedAt, finishedAt time.Time, errStr string) Run {
	return Run{
		id:         id,
		repoID:     repoID,
		commitSHA:  commitSHA,
		status:     status,
		stage:      stage,
		degraded:   degraded,
		startedAt:  startedAt,
		finishedAt: finishedAt,
		err:        errStr,
	}
}

// ID returns the database identifier, or 0 if not yet persisted.
func (r Run) ID() int64 { return r.id }

// RepoID returns the target repository id.
func (r Run) RepoID() int64 { return r.repoID }

// CommitSHA returns the commit this run processes.
func (r Run) CommitSHA() string { return r.commitSHA }

// Status returns the lifecycle state.
func (r Run) Status() Status { return r.status }

// Stage returns the most recently committed stage.
func (r Run) Stage() Stage { return r.stage }

// Degraded reports whether IngestionDegraded was set (>50% chunk failure).
func (r Run) Degraded() bool { return r.degraded }

// StartedAt returns when the run transitioned to RUNNING.
func (r Run) StartedAt() time.Time { return r.startedAt }

// FinishedAt returns when the run reached a terminal state.
func (r Run) FinishedAt() time.Time { return r.finishedAt }

// Error returns the human-readable failure reason, if any.
func (r Run) Error() string { return r.err }

// WithID returns a copy with the given id.
func (r Run) WithID(id int64) Run {
	r.id = id
	return r
}

// Start transitions the run to RUNNING at the given timestamp, with its
// stage set to StageClone.
func (r Run) Start(at time.Time) Run {
	r.status = StatusRunning
	r.startedAt = at
	r.stage = StageClone
	return r
}

// AdvanceStage records that the given stage has committed its output.
func (r Run) AdvanceStage(stage Stage) Run {
	r.stage = stage
	return r
}

// MarkDegraded sets the degraded flag (>50% of a stage's chunks failed).
func (r Run) MarkDegraded() Run {
	r.degraded = true
	return r
}

// Complete transitions the run to COMPLETED.
func (r Run) Complete(at time.Time) Run {
	r.status = StatusCompleted
	r.stage = StageArchiveManifest
	r.finishedAt = at
	return r
}

// Fail transitions the run to FAILED with a human-readable reason.
func (r Run) Fail(at time.Time, reason string) Run {
	r.status = StatusFailed
	r.finishedAt = at
	r.err = reason
	return r
}

// Cancel records an external cancellation: a cancelled run leaves a
// persisted FAILED record with error="cancelled".
func (r Run) Cancel(at time.Time) Run {
	return r.Fail(at, "cancelled")
}

// Terminal reports whether the run has reached COMPLETED or FAILED.
func (r Run) Terminal() bool {
	return r.status == StatusCompleted || r.status == StatusFailed
}
