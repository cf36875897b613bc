// Package ingestion provides the ingestion coordinator's (C11) five stage
// handlers: clone, parse_index, resolve_callgraph, chunk_embed_upsert, and
// archive_manifest, chained by each handler enqueuing the next stage's task
// on success.
package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/codesense-dev/codesense/application/handler"
	"github.com/codesense-dev/codesense/domain/ingestion"
	"github.com/codesense-dev/codesense/domain/taskqueue"
	"github.com/codesense-dev/codesense/infrastructure/git"
	"github.com/codesense-dev/codesense/infrastructure/persistence"
)

// CloneHandler executes ingestion.StageClone: shallow-clone the repository,
// resolve its head commit, and hand off to the parse_index stage.
type CloneHandler struct {
	repos  persistence.RepositoryStore
	runs   persistence.RunStore
	tasks  persistence.TaskStore
	cloner *git.Cloner
}

// NewCloneHandler creates a CloneHandler.
func NewCloneHandler(repos persistence.RepositoryStore, runs persistence.RunStore, tasks persistence.TaskStore, cloner *git.Cloner) *CloneHandler {
	return &CloneHandler{repos: repos, runs: runs, tasks: tasks, cloner: cloner}
}

// Execute implements handler.Handler.
func (h *CloneHandler) Execute(ctx context.Context, payload map[string]any) error {
	repoID, err := handler.ExtractInt64(payload, "repo_id")
	if err != nil {
		return err
	}
	runID, err := handler.ExtractInt64(payload, "run_id")
	if err != nil {
		return err
	}

	claimed, err := h.runs.ClaimPending(ctx, runID, time.Now())
	if err != nil {
		return fmt.Errorf("clone: claim run %d: %w", runID, err)
	}
	if !claimed {
		// Already claimed by a concurrent worker or no longer pending.
		return nil
	}

	repo, err := h.repos.Get(ctx, repoID)
	if err != nil {
		return fmt.Errorf("clone: load repository %d: %w", repoID, err)
	}

	result, err := h.cloner.Clone(ctx, repo.RemoteURL())
	if err != nil {
		return fmt.Errorf("clone: %w", err)
	}

	if err := h.runs.SetCommitSHA(ctx, runID, result.CommitSHA); err != nil {
		return fmt.Errorf("clone: record commit sha: %w", err)
	}
	if err := h.runs.AdvanceStage(ctx, runID, ingestion.StageClone); err != nil {
		return fmt.Errorf("clone: advance stage: %w", err)
	}

	repo = repo.WithDefaultBranch(result.DefaultBranch)
	if _, err := h.repos.Save(ctx, repo); err != nil {
		return fmt.Errorf("clone: update repository: %w", err)
	}

	next := taskqueue.New(ingestion.StageParseIndex, taskqueue.PriorityNormal, map[string]any{
		"repo_id":    repoID,
		"commit_sha": result.CommitSHA,
		"run_id":     runID,
		"clone_path": result.Path,
	})
	if _, err := h.tasks.Enqueue(ctx, next); err != nil {
		return fmt.Errorf("clone: enqueue parse_index task: %w", err)
	}

	return nil
}

var _ handler.Handler = (*CloneHandler)(nil)
