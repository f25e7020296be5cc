package sweepers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/price-standard/price-service/internal/storage"
)

// OutputSweeper periodically deletes generated price lists older than the retention period
type OutputSweeper struct {
	store     storage.Storage
	logger    *zerolog.Logger
	interval  time.Duration
	retention time.Duration
	stopChan  chan struct{}
	stopOnce  sync.Once

	// Now supplies the clock (default: time.Now)
	Now func() time.Time
}

// NewOutputSweeper creates a new sweeper for stored outputs
func NewOutputSweeper(store storage.Storage, logger *zerolog.Logger, interval, retention time.Duration) *OutputSweeper {
	return &OutputSweeper{
		store:     store,
		logger:    logger,
		interval:  interval,
		retention: retention,
		stopChan:  make(chan struct{}),
		Now:       time.Now,
	}
}

// Start begins the periodic sweep and blocks until stopped
func (s *OutputSweeper) Start(ctx context.Context) {
	s.logger.Info().
		Dur("interval", s.interval).
		Dur("retention", s.retention).
		Msg("Starting output sweeper")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Output sweeper stopping (context cancelled)")
			return
		case <-s.stopChan:
			s.logger.Info().Msg("Output sweeper stopping (stop signal)")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error().Err(err).Msg("Failed to sweep outputs")
			}
		}
	}
}

// Stop signals the sweeper to stop. It is safe to call more than once.
func (s *OutputSweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// Sweep deletes every output whose modification time is past the retention
// period and returns how many were removed
func (s *OutputSweeper) Sweep(ctx context.Context) (int, error) {
	s.logger.Debug().Msg("Running output sweep")

	keys, err := s.store.List(ctx, storage.OutputsPrefix)
	if err != nil {
		return 0, fmt.Errorf("failed to list outputs: %w", err)
	}

	cutoff := s.Now().Add(-s.retention)
	removed := 0
	var errs []error

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return removed, err
		}

		info, err := s.store.GetInfo(ctx, key)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			errs = append(errs, err)
			continue
		}
		if !info.ModifiedAt.Before(cutoff) {
			continue
		}

		if err := s.store.Delete(ctx, key); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
		s.logger.Debug().Str("key", key).Time("modifiedAt", info.ModifiedAt).Msg("Deleted expired output")
	}

	if removed > 0 {
		s.logger.Info().
			Int("removed", removed).
			Int("scanned", len(keys)).
			Msg("Swept expired outputs")
	}

	return removed, errors.Join(errs...)
}
