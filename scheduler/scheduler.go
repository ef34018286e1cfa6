// Package scheduler runs the periodic score refresh job.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/bricon/seo-engine/scoring"
)

// Refresher re-scores entities whose persisted score is stale
type Refresher interface {
	RefreshStale(ctx context.Context, limit int) (scoring.RefreshReport, error)
}

// Scheduler triggers Refresher on a cron schedule
type Scheduler struct {
	cron      *cron.Cron
	refresher Refresher
	batchSize int
	timeout   time.Duration
	logger    *zap.Logger

	mu      sync.Mutex
	entryID cron.EntryID
	started bool
}

// New creates a scheduler. batchSize bounds each entity kind per run.
func New(refresher Refresher, batchSize int, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	return &Scheduler{
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		refresher: refresher,
		batchSize: batchSize,
		timeout:   5 * time.Minute,
		logger:    logger,
	}
}

// Schedule registers the refresh job with a cron spec such as "@hourly"
// or "*/15 * * * *", replacing any earlier registration
func (s *Scheduler) Schedule(spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
	}

	id, err := s.cron.AddFunc(spec, s.RunOnce)
	if err != nil {
		return fmt.Errorf("add cron job %q: %w", spec, err)
	}
	s.entryID = id
	return nil
}

// RunOnce performs one refresh pass
func (s *Scheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	report, err := s.refresher.RefreshStale(ctx, s.batchSize)
	if err != nil {
		s.logger.Error("score refresh failed", zap.Error(err))
		return
	}
	s.logger.Info("score refresh completed",
		zap.Int("media", report.Media),
		zap.Int("articles", report.Articles),
		zap.Int("failed", report.Failed),
		zap.Duration("elapsed", time.Since(start)))
}

// Start begins running scheduled jobs
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		s.cron.Start()
		s.started = true
	}
}

// Stop halts the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		<-s.cron.Stop().Done()
		s.started = false
	}
}
