package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/codesense-dev/codesense/domain/coderepo"
	"github.com/codesense-dev/codesense/infrastructure/persistence"
	"github.com/codesense-dev/codesense/internal/config"
	"github.com/codesense-dev/codesense/internal/database"
)

func newTestDB(t *testing.T) database.Database {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	db := database.NewFromGORM(gdb, false)
	require.NoError(t, db.AutoMigrate(persistence.AllModels()...))
	return db
}

func TestPeriodicSync_Enabled(t *testing.T) {
	db := newTestDB(t)
	repos := persistence.NewRepositoryStore(db)
	ctx := context.Background()

	for _, name := range []string{"repo-a", "repo-b"} {
		_, err := repos.Save(ctx, coderepo.New("github", "org", name, "https://github.com/org/"+name))
		require.NoError(t, err)
	}

	coordinator := NewCoordinator(repos, persistence.NewRunStore(db), persistence.NewTaskStore(db))

	cfg := config.NewPeriodicSyncConfig().
		WithEnabled(true).
		WithIntervalSeconds(0.01).
		WithCheckIntervalSeconds(0.01)

	ps := NewPeriodicSync(cfg, repos, coordinator, nil)
	ps.Start(ctx)

	runs := persistence.NewRunStore(db)
	require.Eventually(t, func() bool {
		for _, r := range mustRepos(t, repos, ctx) {
			if _, err := runs.LatestForRepo(ctx, r.ID()); err != nil {
				return false
			}
		}
		return true
	}, time.Second, 5*time.Millisecond)

	ps.Stop()
}

func TestPeriodicSync_Disabled(t *testing.T) {
	db := newTestDB(t)
	repos := persistence.NewRepositoryStore(db)
	ctx := context.Background()

	_, err := repos.Save(ctx, coderepo.New("github", "org", "repo", "https://github.com/org/repo"))
	require.NoError(t, err)

	coordinator := NewCoordinator(repos, persistence.NewRunStore(db), persistence.NewTaskStore(db))

	cfg := config.NewPeriodicSyncConfig().WithEnabled(false)

	ps := NewPeriodicSync(cfg, repos, coordinator, nil)
	ps.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	ps.Stop()

	runs := persistence.NewRunStore(db)
	_, err = runs.LatestForRepo(ctx, 1)
	assert.Error(t, err)
}

func TestPeriodicSync_EmptyRepositories(t *testing.T) {
	db := newTestDB(t)
	repos := persistence.NewRepositoryStore(db)
	ctx := context.Background()

	coordinator := NewCoordinator(repos, persistence.NewRunStore(db), persistence.NewTaskStore(db))

	cfg := config.NewPeriodicSyncConfig().
		WithEnabled(true).
		WithIntervalSeconds(0.01).
		WithCheckIntervalSeconds(0.01)

	ps := NewPeriodicSync(cfg, repos, coordinator, nil)
	ps.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	ps.Stop()
}

func mustRepos(t *testing.T, repos persistence.RepositoryStore, ctx context.Context) []coderepo.Repository {
	t.Helper()
	all, err := repos.Find(ctx, database.NewQuery())
	require.NoError(t, err)
	return all
}
