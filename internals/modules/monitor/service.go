package monitor

import (
	"context"
	"net/url"
	"time"

	"github.com/milankatira/uptime-sub000/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Schedule is the slice of the scheduler the catalog needs: keep the
// recurring check task in step with monitor CRUD.
type Schedule interface {
	Upsert(ctx context.Context, monitorID uuid.UUID, interval time.Duration) error
	Remove(ctx context.Context, monitorID uuid.UUID) error
}

type Service struct {
	repo   *Repository
	cache  Cache
	sched  Schedule
	logger *zerolog.Logger
}

func NewService(repo *Repository, cache Cache, sched Schedule, logger *zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		sched:  sched,
		logger: logger,
	}
}

func (s *Service) CreateMonitor(ctx context.Context, m Monitor) (uuid.UUID, error) {
	const op string = "service.monitor.create"

	if err := validateMonitor(&m); err != nil {
		return uuid.Nil, err
	}
	if m.Kind == KindPassive {
		m.LastStatus = HeartbeatUp
		m.LastPingAt = time.Now()
	}

	id, err := s.repo.Create(ctx, m)
	if err != nil {
		return uuid.Nil, err
	}

	if m.Kind == KindActive && !m.Disabled {
		if err := s.sched.Upsert(ctx, id, time.Duration(m.IntervalSec)*time.Second); err != nil {
			return uuid.Nil, apperror.New(apperror.Dependency, op, err)
		}
	}

	return id, nil
}

// LoadMonitor is the worker-pool read path: cache first, then DB.
func (s *Service) LoadMonitor(ctx context.Context, monitorID uuid.UUID) (Monitor, error) {
	m, exists := s.cache.GetMonitor(ctx, monitorID)
	if exists {
		return m, nil
	}

	mDB, err := s.repo.GetByID(ctx, monitorID)
	if err != nil {
		return Monitor{}, err
	}
	_ = s.cache.SetMonitor(ctx, mDB)

	return mDB, nil
}

func (s *Service) GetMonitor(ctx context.Context, ownerID, monitorID uuid.UUID) (Monitor, error) {
	const op string = "service.monitor.get"

	m, err := s.LoadMonitor(ctx, monitorID)
	if err != nil {
		return Monitor{}, err
	}
	if m.OwnerID != ownerID {
		return Monitor{}, apperror.New(apperror.Forbidden, op, nil).
			WithMessage("monitor belongs to another owner")
	}
	return m, nil
}

func (s *Service) ListMonitors(ctx context.Context, ownerID uuid.UUID, limit, offset int32) ([]Monitor, error) {
	return s.repo.ListByOwner(ctx, ownerID, limit, offset)
}

// SetEnabled flips the disabled flag. Disabling removes the recurring task
// and clears every cached artifact for the monitor; enabling re-registers
// the schedule for active monitors.
func (s *Service) SetEnabled(ctx context.Context, ownerID, monitorID uuid.UUID, enabled bool) error {
	const op string = "service.monitor.set_enabled"

	m, err := s.GetMonitor(ctx, ownerID, monitorID)
	if err != nil {
		return err
	}
	if m.Disabled == !enabled {
		return apperror.New(apperror.Conflict, op, nil).
			WithMessage("monitor already in requested state")
	}

	if _, err := s.repo.SetDisabled(ctx, monitorID, !enabled); err != nil {
		return err
	}
	_ = s.cache.DelMonitor(ctx, monitorID)

	if enabled {
		if m.Kind == KindActive {
			return s.sched.Upsert(ctx, monitorID, time.Duration(m.IntervalSec)*time.Second)
		}
		return nil
	}

	if err := s.sched.Remove(ctx, monitorID); err != nil {
		s.logger.Error().Err(err).Str("monitor_id", monitorID.String()).
			Msg("failed to remove schedule for disabled monitor")
	}
	_ = s.cache.DelStatus(ctx, monitorID)
	return nil
}

func (s *Service) DeleteMonitor(ctx context.Context, ownerID, monitorID uuid.UUID) error {
	const op string = "service.monitor.delete"

	if _, err := s.GetMonitor(ctx, ownerID, monitorID); err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, monitorID)
	if err != nil {
		return err
	}
	if !deleted {
		return apperror.New(apperror.NotFound, op, nil).WithMessage("monitor not found")
	}

	if err := s.sched.Remove(ctx, monitorID); err != nil {
		s.logger.Error().Err(err).Str("monitor_id", monitorID.String()).
			Msg("failed to remove schedule for deleted monitor")
	}
	_ = s.cache.DelMonitor(ctx, monitorID)
	_ = s.cache.DelStatus(ctx, monitorID)
	return nil
}

// UpsertSchedule re-registers the monitor's recurring check at a new
// interval. The scheduler's ZADD overwrites the old due time, so exactly one
// task remains and the new cadence takes effect from the next fire.
func (s *Service) UpsertSchedule(ctx context.Context, ownerID, monitorID uuid.UUID, intervalSec int32) error {
	const op string = "service.monitor.upsert_schedule"

	m, err := s.GetMonitor(ctx, ownerID, monitorID)
	if err != nil {
		return err
	}
	if m.Kind != KindActive {
		return apperror.New(apperror.InvalidInput, op, nil).
			WithMessage("only active monitors have a check schedule")
	}
	if intervalSec < 1 {
		return apperror.New(apperror.InvalidInput, op, nil).
			WithMessage("interval must be at least 1 second")
	}

	if _, err := s.repo.UpdateInterval(ctx, monitorID, intervalSec); err != nil {
		return err
	}
	_ = s.cache.DelMonitor(ctx, monitorID)

	if m.Disabled {
		return nil
	}
	return s.sched.Upsert(ctx, monitorID, time.Duration(intervalSec)*time.Second)
}

// RemoveSchedule cancels the recurring check without deleting the monitor.
// The monitor is marked disabled so a restart reconcile does not resurrect
// the schedule. Removing an already-unscheduled monitor is a no-op.
func (s *Service) RemoveSchedule(ctx context.Context, ownerID, monitorID uuid.UUID) error {
	const op string = "service.monitor.remove_schedule"

	m, err := s.GetMonitor(ctx, ownerID, monitorID)
	if err != nil {
		return err
	}
	if m.Kind != KindActive {
		return apperror.New(apperror.InvalidInput, op, nil).
			WithMessage("only active monitors have a check schedule")
	}

	if _, err := s.repo.SetDisabled(ctx, monitorID, true); err != nil {
		return err
	}
	_ = s.cache.DelMonitor(ctx, monitorID)
	_ = s.cache.DelStatus(ctx, monitorID)

	return s.sched.Remove(ctx, monitorID)
}

// ListSchedulable feeds the scheduler's startup reconcile.
func (s *Service) ListSchedulable(ctx context.Context) (map[uuid.UUID]time.Duration, error) {
	monitors, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID]time.Duration, len(monitors))
	for i := range monitors {
		out[monitors[i].ID] = time.Duration(monitors[i].IntervalSec) * time.Second
	}
	return out, nil
}

func validateMonitor(m *Monitor) error {
	const op string = "service.monitor.validate"

	invalid := func(msg string) error {
		return apperror.New(apperror.InvalidInput, op, nil).WithMessage(msg)
	}

	switch m.Kind {
	case KindActive:
		if m.TargetURL == "" {
			return invalid("target url is required")
		}
		u, err := url.Parse(m.TargetURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return invalid("target url must be an absolute http(s) url")
		}
		if m.IntervalSec < 1 {
			return invalid("interval must be at least 1 second")
		}
	case KindPassive:
		if m.ExpectedIntervalSec < 1 {
			return invalid("expected interval must be at least 1 second")
		}
		if m.GracePeriodSec < 0 {
			return invalid("grace period must not be negative")
		}
		for _, w := range m.Maintenance {
			if err := w.Validate(); err != nil {
				return invalid(err.Error())
			}
		}
	default:
		return invalid("unknown monitor kind")
	}

	return nil
}
