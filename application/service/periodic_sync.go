package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/codesense-dev/codesense/domain/taskqueue"
	"github.com/codesense-dev/codesense/infrastructure/persistence"
	"github.com/codesense-dev/codesense/internal/config"
)

// PeriodicSync re-triggers ingestion for every tracked repository whose
// latest indexed commit is older than the configured interval, on a timer.
type PeriodicSync struct {
	repos         persistence.RepositoryStore
	coordinator   *Coordinator
	logger        *slog.Logger
	interval      time.Duration
	checkPeriod   time.Duration
	retryAttempts int
	enabled       bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewPeriodicSync creates a PeriodicSync from cfg and its dependencies.
func NewPeriodicSync(cfg config.PeriodicSyncConfig, repos persistence.RepositoryStore, coordinator *Coordinator, logger *slog.Logger) *PeriodicSync {
	if logger == nil {
		logger = slog.Default()
	}
	checkPeriod := cfg.CheckInterval()
	if checkPeriod <= 0 {
		checkPeriod = 10 * time.Second
	}
	return &PeriodicSync{
		repos:         repos,
		coordinator:   coordinator,
		logger:        logger,
		interval:      cfg.Interval(),
		checkPeriod:   checkPeriod,
		retryAttempts: cfg.RetryAttempts(),
		enabled:       cfg.Enabled(),
	}
}

// Start begins the periodic sync loop in a background goroutine. If
// disabled, this is a no-op.
func (p *PeriodicSync) Start(ctx context.Context) {
	if !p.enabled {
		p.logger.Info("periodic sync disabled")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(ctx)
	}()

	p.logger.Info("periodic sync started", slog.Duration("interval", p.interval))
}

// Stop cancels the background goroutine and waits for it to finish.
func (p *PeriodicSync) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
	p.logger.Info("periodic sync stopped")
}

func (p *PeriodicSync) run(ctx context.Context) {
	ticker := time.NewTicker(p.checkPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.sync(ctx)
		}
	}
}

func (p *PeriodicSync) sync(ctx context.Context) {
	repos, err := p.repos.FindDueForSync(ctx, time.Now().Add(-p.interval))
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Error("periodic sync failed to find due repositories", slog.String("error", err.Error()))
		return
	}

	for _, repo := range repos {
		if _, err := p.startWithRetry(ctx, repo.ID()); err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("periodic sync failed to start ingestion",
				slog.Int64("repo_id", repo.ID()),
				slog.String("error", err.Error()),
			)
		}
	}

	if len(repos) > 0 {
		p.logger.Debug("periodic sync enqueued", slog.Int("count", len(repos)))
	}
}

func (p *PeriodicSync) startWithRetry(ctx context.Context, repoID int64) (bool, error) {
	var lastErr error
	attempts := p.retryAttempts
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 0; attempt < attempts; attempt++ {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if _, err := p.coordinator.StartIngestion(ctx, repoID, taskqueue.PriorityBackground); err != nil {
			lastErr = err
			continue
		}
		return true, nil
	}
	return false, lastErr
}
