// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/ManuGH/v2m3u/internal/config"
	xglog "github.com/ManuGH/v2m3u/internal/log"
)

// RefreshFunc runs one refresh with cfg.
type RefreshFunc func(ctx context.Context, cfg config.AppConfig) (*Status, error)

// Scheduler runs refreshes periodically and on demand. The configuration is
// read anew before every run, so reloaded settings apply to the next run.
type Scheduler struct {
	refresh RefreshFunc
	config  func() config.AppConfig
	trigger chan struct{}

	mu      sync.RWMutex
	last    *Status
	running bool
}

// NewScheduler creates a Scheduler calling refresh with the configuration
// returned by cfg.
func NewScheduler(refresh RefreshFunc, cfg func() config.AppConfig) *Scheduler {
	return &Scheduler{
		refresh: refresh,
		config:  cfg,
		trigger: make(chan struct{}, 1),
	}
}

// Trigger requests a refresh. It reports false when a request is already
// pending.
func (s *Scheduler) Trigger() bool {
	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Last returns the status of the most recent run, or nil before the first.
func (s *Scheduler) Last() *Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Running reports whether a refresh is in progress.
func (s *Scheduler) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Run performs an initial refresh and then one per configured interval or
// trigger until ctx is done. A zero interval disables periodic runs.
func (s *Scheduler) Run(ctx context.Context) {
	logger := xglog.WithComponentFromContext(ctx, "scheduler")

	s.runOnce(ctx)
	for {
		interval := s.config().Server.RefreshInterval
		var tick <-chan time.Time
		var timer *time.Timer
		if interval > 0 {
			timer = time.NewTimer(interval)
			tick = timer.C
			logger.Debug().
				Str(xglog.FieldEvent, "scheduler.next").
				Time("at", time.Now().Add(interval)).
				Msg("next refresh scheduled")
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info().Str(xglog.FieldEvent, "scheduler.stopped").Msg("scheduler stopped")
			return
		case <-tick:
		case <-s.trigger:
			if timer != nil {
				timer.Stop()
			}
			logger.Info().Str(xglog.FieldEvent, "scheduler.triggered").Msg("manual refresh requested")
		}
		s.runOnce(ctx)
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	status, err := s.refresh(ctx, s.config())
	if status == nil && err != nil {
		status = &Status{LastRun: time.Now(), Error: err.Error()}
	}

	s.mu.Lock()
	s.running = false
	if status != nil {
		s.last = status
	}
	s.mu.Unlock()
}
