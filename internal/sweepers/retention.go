package sweepers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Purger deletes analytics rows created before a cutoff.
type Purger interface {
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionSweeper periodically purges analytics older than the retention window.
type RetentionSweeper struct {
	store     Purger
	logger    *zerolog.Logger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
	stopChan  chan struct{}
	stopOnce  sync.Once
}

// NewRetentionSweeper creates a sweeper that runs every interval and keeps
// retention worth of history.
func NewRetentionSweeper(store Purger, logger *zerolog.Logger, interval, retention time.Duration) *RetentionSweeper {
	return &RetentionSweeper{
		store:     store,
		logger:    logger,
		interval:  interval,
		retention: retention,
		now:       time.Now,
		stopChan:  make(chan struct{}),
	}
}

// Start runs the sweep loop until ctx is cancelled or Stop is called.
func (s *RetentionSweeper) Start(ctx context.Context) {
	s.logger.Info().
		Dur("interval", s.interval).
		Dur("retention", s.retention).
		Msg("Starting retention sweeper")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Retention sweeper stopping (context cancelled)")
			return
		case <-s.stopChan:
			s.logger.Info().Msg("Retention sweeper stopping (stop signal)")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error().Err(err).Msg("Failed to purge analytics")
			}
		}
	}
}

// Stop signals the sweeper to stop. Safe to call more than once.
func (s *RetentionSweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// Sweep runs one purge pass.
func (s *RetentionSweeper) Sweep(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.retention)
	s.logger.Debug().Time("cutoff", cutoff).Msg("Running retention sweep")

	deleted, err := s.store.Purge(ctx, cutoff)
	if err != nil {
		return deleted, fmt.Errorf("failed to purge analytics: %w", err)
	}

	if deleted > 0 {
		s.logger.Info().
			Int64("deleted", deleted).
			Time("cutoff", cutoff).
			Msg("Purged expired analytics")
	}
	return deleted, nil
}
