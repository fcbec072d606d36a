package service

import (
	"log/slog"
	"time"

	"github.com/hellomouse/pinboard-server/pkg/httpx"
)

// HousekeepingService periodically prunes the in-memory attempt tracker
// and rate-limiter tables so idle keys do not accumulate for the life
// of the process. Pruning is an optimization only; lockout and limiter
// decisions stay correct without it.
type HousekeepingService struct {
	Tracker  *LoginAttemptTracker
	Limiter  *httpx.RateLimiter
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service with the given
// interval. If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(
	tracker *LoginAttemptTracker,
	limiter *httpx.RateLimiter,
	logger *slog.Logger,
	interval time.Duration,
) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Tracker:  tracker,
		Limiter:  limiter,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut
// it down gracefully.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts down the background worker, blocking until any in-progress
// sweep finishes.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) sweep() {
	s.Tracker.Prune()
	s.Limiter.Prune()
	s.Logger.Debug("housekeeping sweep completed")
}
