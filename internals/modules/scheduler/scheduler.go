package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/milankatira/uptime-sub000/config"
	"github.com/milankatira/uptime-sub000/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store holds the durable next-run state: a sorted set of monitor IDs
// scored by due time. Implemented by pkg/redisstore; substituted with an
// in-memory version in tests.
type Store interface {
	Schedule(ctx context.Context, monitorID string, nextRun time.Time) error
	DelSchedule(ctx context.Context, monitorID string) error
	FetchDueMonitors(ctx context.Context, script string, now time.Time, limit int) ([]string, error)
}

// TaskQueue is where due check tasks go. Implemented by the RabbitMQ
// publisher; the worker pool consumes the other end.
type TaskQueue interface {
	PublishCheck(ctx context.Context, monitorID uuid.UUID) error
}

// Catalog is the monitor source of truth the startup reconcile reads.
type Catalog interface {
	ListSchedulable(ctx context.Context) (map[uuid.UUID]time.Duration, error)
}

// Scheduler owns the mapping monitor -> recurring check task. The in-memory
// interval map is the task handle set and is only mutated through Upsert and
// Remove; the Redis sorted set carries due times across restarts. The poll
// loop only enqueues: probes run in the worker pool, so a hung probe can
// never stall the timer.
type Scheduler struct {
	// lifecycle
	ctx          context.Context
	pollInterval time.Duration
	batchSize    int

	// task handles
	mu        sync.Mutex
	intervals map[uuid.UUID]time.Duration

	// services
	store Store
	queue TaskQueue

	// misc
	logger *zerolog.Logger
	now    func() time.Time
}

func NewScheduler(
	ctx context.Context,
	cfg *config.SchedulerConfig,
	store Store,
	queue TaskQueue,
	logger *zerolog.Logger,
) *Scheduler {
	return &Scheduler{
		ctx:          ctx,
		pollInterval: cfg.PollInterval,
		batchSize:    cfg.BatchSize,
		intervals:    make(map[uuid.UUID]time.Duration),
		store:        store,
		queue:        queue,
		logger:       logger,
		now:          time.Now,
	}
}

// Upsert registers (or atomically replaces) the monitor's recurring task.
// The sorted set keys by monitor ID, so a second Upsert overwrites the due
// time instead of creating a parallel schedule; the new interval takes
// effect from the next fire.
func (s *Scheduler) Upsert(ctx context.Context, monitorID uuid.UUID, interval time.Duration) error {
	const op string = "scheduler.upsert"

	if monitorID == uuid.Nil {
		return apperror.New(apperror.InvalidInput, op, nil).
			WithMessage("monitor id is required")
	}
	if interval <= 0 {
		return apperror.New(apperror.InvalidInput, op, nil).
			WithMessage("interval must be positive")
	}

	s.mu.Lock()
	s.intervals[monitorID] = interval
	s.mu.Unlock()

	if err := s.store.Schedule(ctx, monitorID.String(), s.now().Add(interval)); err != nil {
		return apperror.New(apperror.Dependency, op, err)
	}
	return nil
}

// Remove cancels the monitor's recurring task. Removing an unknown monitor
// is a no-op, not an error.
func (s *Scheduler) Remove(ctx context.Context, monitorID uuid.UUID) error {
	const op string = "scheduler.remove"

	s.mu.Lock()
	delete(s.intervals, monitorID)
	s.mu.Unlock()

	if err := s.store.DelSchedule(ctx, monitorID.String()); err != nil {
		return apperror.New(apperror.Dependency, op, err)
	}
	return nil
}

// ReconcileAll rebuilds the full schedule from the monitor catalog. Run
// once at process start so a crash-and-restart recovers from the source of
// truth instead of in-memory state.
func (s *Scheduler) ReconcileAll(ctx context.Context, catalog Catalog) error {
	const op string = "scheduler.reconcile_all"

	monitors, err := catalog.ListSchedulable(ctx)
	if err != nil {
		return apperror.New(apperror.Dependency, op, err)
	}

	for id, interval := range monitors {
		if err := s.Upsert(ctx, id, interval); err != nil {
			s.logger.Error().Err(err).
				Str("monitor_id", id.String()).
				Msg("failed to reconcile monitor schedule")
		}
	}

	s.logger.Info().Int("count", len(monitors)).Msg("schedule reconciled from catalog")
	return nil
}

// TaskCount reports how many recurring tasks are registered.
func (s *Scheduler) TaskCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.intervals)
}

// Run drives the poll loop until the scheduler's context is cancelled.
func (s *Scheduler) Run() {
	s.logger.Info().Msg("scheduler started")

	ticker := time.NewTicker(s.pollInterval)
	defer func() {
		ticker.Stop()
		s.logger.Info().Msg("scheduler stopped")
	}()

	for {
		select {
		case <-s.ctx.Done():
			return

		case <-ticker.C:
			s.pollOnce()
		}
	}
}

// pollOnce pops every due monitor, publishes one check-due task each and
// immediately re-registers the next run so exactly one task fires per
// interval elapsed.
func (s *Scheduler) pollOnce() {
	now := s.now()

	due, err := s.store.FetchDueMonitors(s.ctx, fetchDueMonitorsScript, now, s.batchSize)
	if err != nil {
		// transient store error, next tick retries
		s.logger.Error().Err(err).Msg("failed to fetch due monitors")
		return
	}

	for _, member := range due {
		id, err := uuid.Parse(member)
		if err != nil {
			s.logger.Warn().Str("member", member).Msg("corrupt schedule member, skipping")
			continue
		}

		s.mu.Lock()
		interval, ok := s.intervals[id]
		s.mu.Unlock()
		if !ok {
			// removed or disabled after the entry was written; drop it
			continue
		}

		if err := s.queue.PublishCheck(s.ctx, id); err != nil {
			s.logger.Error().Err(err).
				Str("monitor_id", id.String()).
				Msg("failed to publish check task")
		}

		if err := s.store.Schedule(s.ctx, member, now.Add(interval)); err != nil {
			s.logger.Error().Err(err).
				Str("monitor_id", id.String()).
				Msg("failed to reschedule monitor")
		}
	}
}
