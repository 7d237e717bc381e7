package batch

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Syncer runs one sync.
type Syncer interface {
	Sync(ctx context.Context, opts Options) (*Report, error)
}

// Scheduler runs a sync periodically and on demand.
type Scheduler struct {
	syncer   Syncer
	interval time.Duration
	jitter   time.Duration
	opts     Options
	trigger  chan struct{}
	logger   *zap.Logger
}

// NewScheduler creates a scheduler. A zero interval only runs triggered syncs.
// Each period is randomized by up to a tenth of interval so replicas drift apart.
func NewScheduler(syncer Syncer, interval time.Duration, opts Options, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		syncer:   syncer,
		interval: interval,
		jitter:   interval / 10,
		opts:     opts,
		trigger:  make(chan struct{}, 1),
		logger:   logger,
	}
}

// Trigger asks for a sync as soon as possible. Triggers received while one is
// already queued are merged.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

func (s *Scheduler) next() time.Duration {
	if s.jitter <= 0 {
		return s.interval
	}
	offset := time.Duration(rand.Int64N(int64(2*s.jitter))) - s.jitter
	return s.interval + offset
}

// Run syncs once, then on every tick or trigger until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("Starting sync scheduler", zap.Duration("interval", s.interval))

	var tick <-chan time.Time
	var timer *time.Timer
	if s.interval > 0 {
		timer = time.NewTimer(s.next())
		defer timer.Stop()
		tick = timer.C
	}

	s.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sync scheduler stopping")
			return nil
		case <-tick:
			s.runOnce(ctx)
			timer.Reset(s.next())
		case <-s.trigger:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if _, err := s.syncer.Sync(ctx, s.opts); err != nil {
		s.logger.Error("Scheduled sync failed", zap.Error(err))
	}
}
