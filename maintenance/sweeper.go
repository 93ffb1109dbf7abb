// Package maintenance provides an opt-in scheduled sweeper for
// deployments that want bounded sweep latency even when the cache sees no
// traffic. The engine's lazy sweep remains the default; this runs the
// same bulk delete on a cron schedule.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/sqlcache"
	"github.com/charlesng35/sqlcache/pkg/logger"
)

const defaultSchedule = "@every 30m"

// Sweeper periodically deletes expired entries from one or more stores.
type Sweeper struct {
	stores   []sqlcache.EntryStore
	cron     *cron.Cron
	now      func() time.Time
	log      *zap.Logger
	schedule string
}

// Option customises the Sweeper.
type Option func(*Sweeper)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(s *Sweeper) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithNow overrides the clock used for the expiry cutoff.
func WithNow(now func() time.Time) Option {
	return func(s *Sweeper) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSchedule overrides the cron specification for sweep runs.
func WithSchedule(spec string) Option {
	return func(s *Sweeper) {
		if spec != "" {
			s.schedule = spec
		}
	}
}

// WithLogger overrides the sweeper's logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Sweeper) {
		if log != nil {
			s.log = log
		}
	}
}

// NewSweeper constructs a Sweeper over the supplied stores.
func NewSweeper(stores []sqlcache.EntryStore, opts ...Option) (*Sweeper, error) {
	if len(stores) == 0 {
		return nil, fmt.Errorf("maintenance: at least one entry store is required")
	}

	sweeper := &Sweeper{
		stores:   stores,
		now:      time.Now,
		schedule: defaultSchedule,
		log:      logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(sweeper)
	}

	if sweeper.cron == nil {
		sweeper.cron = cron.New()
	}

	return sweeper, nil
}

// Start registers the sweep job and starts the scheduler.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.RunOnce(context.Background()); err != nil {
			s.log.Warn("scheduled sweep failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("maintenance: schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	return nil
}

// Stop halts the scheduler. The returned context is done once any
// in-flight sweep has completed.
func (s *Sweeper) Stop() context.Context {
	return s.cron.Stop()
}

// RunOnce sweeps every store immediately, collecting per-store failures
// instead of stopping at the first one.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	now := s.now()

	var errs error
	for _, store := range s.stores {
		deleted, err := store.DeleteExpired(ctx, now)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if deleted > 0 {
			s.log.Info("removed expired cache entries", zap.Int64("deleted", deleted))
		}
	}

	return errs
}
