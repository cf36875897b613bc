package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/codesense-dev/codesense/domain/coderepo"
	"github.com/codesense-dev/codesense/domain/ingestion"
	"github.com/codesense-dev/codesense/domain/taskqueue"
	"github.com/codesense-dev/codesense/infrastructure/persistence"
	"github.com/codesense-dev/codesense/internal/database"
)

// Coordinator triggers ingestion runs and hands them to the queue-driven
// stage pipeline (C11) through a single entry point used by both the
// initial clone and the periodic re-sync.
type Coordinator struct {
	repos persistence.RepositoryStore
	runs  persistence.RunStore
	tasks persistence.TaskStore
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(repos persistence.RepositoryStore, runs persistence.RunStore, tasks persistence.TaskStore) *Coordinator {
	return &Coordinator{repos: repos, runs: runs, tasks: tasks}
}

// StartIngestion creates a new PENDING run for repoID and enqueues its
// first stage task. The run's commit_sha is unknown until the clone stage
// resolves it, so it is recorded empty here.
func (c *Coordinator) StartIngestion(ctx context.Context, repoID int64, priority taskqueue.Priority) (ingestion.Run, error) {
	repo, err := c.repos.Get(ctx, repoID)
	if err != nil {
		return ingestion.Run{}, fmt.Errorf("start ingestion: %w", err)
	}

	run, err := c.runs.Create(ctx, ingestion.NewPending(repo.ID(), ""))
	if err != nil {
		return ingestion.Run{}, fmt.Errorf("start ingestion: %w", err)
	}

	task := taskqueue.New(ingestion.StageClone, priority, map[string]any{
		"repo_id": repo.ID(),
		"run_id":  run.ID(),
	})
	if _, err := c.tasks.Enqueue(ctx, task); err != nil {
		return ingestion.Run{}, fmt.Errorf("start ingestion: enqueue clone task: %w", err)
	}

	return run, nil
}

// RegisterRepository resolves remoteURL to a (provider, owner, name) key,
// reusing the existing row if one is already tracked, and persisting a new
// one otherwise. It is the shared find-or-create entry point for the HTTP
// and MCP "ingest" operations.
func (c *Coordinator) RegisterRepository(ctx context.Context, remoteURL string) (coderepo.Repository, error) {
	provider, owner, name, canonicalURL, err := coderepo.ParseURL(remoteURL)
	if err != nil {
		return coderepo.Repository{}, fmt.Errorf("register repository: %w", err)
	}

	existing, err := c.repos.FindByKey(ctx, coderepo.Key{Provider: provider, Owner: owner, Name: name})
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return coderepo.Repository{}, fmt.Errorf("register repository: %w", err)
	}

	repo := coderepo.New(provider, owner, name, canonicalURL)
	saved, err := c.repos.Save(ctx, repo)
	if err != nil {
		return coderepo.Repository{}, fmt.Errorf("register repository: %w", err)
	}
	return saved, nil
}

// Ingest registers remoteURL (if not already tracked) and starts a new
// ingestion run for it as a single call, combining registration and
// enqueue so callers never have to coordinate the two themselves.
func (c *Coordinator) Ingest(ctx context.Context, remoteURL string, priority taskqueue.Priority) (coderepo.Repository, ingestion.Run, error) {
	repo, err := c.RegisterRepository(ctx, remoteURL)
	if err != nil {
		return coderepo.Repository{}, ingestion.Run{}, err
	}

	run, err := c.StartIngestion(ctx, repo.ID(), priority)
	if err != nil {
		return coderepo.Repository{}, ingestion.Run{}, err
	}
	return repo, run, nil
}

// Status returns the latest ingestion run for repoID, the "ingestion_status"
// contract's backing lookup.
func (c *Coordinator) Status(ctx context.Context, repoID int64) (ingestion.Run, error) {
	return c.runs.LatestForRepo(ctx, repoID)
}

// Repository returns the tracked repository at id.
func (c *Coordinator) Repository(ctx context.Context, repoID int64) (coderepo.Repository, error) {
	return c.repos.Get(ctx, repoID)
}

// Repositories lists every tracked repository.
func (c *Coordinator) Repositories(ctx context.Context) ([]coderepo.Repository, error) {
	return c.repos.Find(ctx, database.NewQuery())
}
