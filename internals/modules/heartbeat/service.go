package heartbeat

import (
	"context"
	"time"

	"github.com/milankatira/uptime-sub000/internals/modules/monitor"
	"github.com/milankatira/uptime-sub000/internals/modules/status"
	"github.com/milankatira/uptime-sub000/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MonitorStore is the slice of monitor persistence the heartbeat path needs.
type MonitorStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (monitor.Monitor, error)
	ListPassive(ctx context.Context) ([]monitor.Monitor, error)
	UpdateHeartbeatState(ctx context.Context, id uuid.UUID, s monitor.HeartbeatStatus, lastPingAt time.Time) error
}

// RecordStore persists the append-only heartbeat history.
type RecordStore interface {
	Create(ctx context.Context, rec HeartbeatRecord) error
	ListSince(ctx context.Context, monitorID uuid.UUID, since time.Time) ([]HeartbeatRecord, error)
}

// IncidentSink receives health transitions derived from heartbeats.
type IncidentSink interface {
	ApplyStatus(ctx context.Context, mon *monitor.Monitor, health status.Health, cause, errorCode string) error
}

// Cache invalidation keeps the worker-pool monitor snapshot in step with
// heartbeat state changes.
type Cache interface {
	DelMonitor(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	monitors MonitorStore
	records  RecordStore
	cache    Cache
	sink     IncidentSink
	logger   *zerolog.Logger

	now func() time.Time
}

func NewService(monitors MonitorStore, records RecordStore, cache Cache, sink IncidentSink, logger *zerolog.Logger) *Service {
	return &Service{
		monitors: monitors,
		records:  records,
		cache:    cache,
		sink:     sink,
		logger:   logger,
		now:      time.Now,
	}
}

// Ping records one inbound heartbeat and moves the monitor to the reported
// state. Reporting UP resolves an open heartbeat incident; reporting DOWN
// opens one immediately, without waiting for the expiry watcher.
func (s *Service) Ping(ctx context.Context, monitorID uuid.UUID, reported monitor.HeartbeatStatus) error {
	const op string = "service.heartbeat.ping"

	if reported != monitor.HeartbeatUp && reported != monitor.HeartbeatDown {
		return apperror.New(apperror.InvalidInput, op, nil).
			WithMessage("reported status must be UP or DOWN")
	}

	m, err := s.loadPassive(ctx, monitorID, op)
	if err != nil {
		return err
	}

	now := s.now()
	if err := s.records.Create(ctx, HeartbeatRecord{
		MonitorID: monitorID,
		Status:    reported,
		Timestamp: now,
	}); err != nil {
		return err
	}
	if err := s.monitors.UpdateHeartbeatState(ctx, monitorID, reported, now); err != nil {
		return err
	}
	_ = s.cache.DelMonitor(ctx, monitorID)

	switch reported {
	case monitor.HeartbeatUp:
		return s.sink.ApplyStatus(ctx, &m, status.Good, "heartbeat received", "")
	case monitor.HeartbeatDown:
		return s.sink.ApplyStatus(ctx, &m, status.Bad, "heartbeat reported down", "HEARTBEAT_DOWN")
	}
	return nil
}

// Acknowledge marks a DOWN monitor as seen by an operator. It mutes further
// expiry scans without claiming the service recovered; the next UP ping
// clears it.
func (s *Service) Acknowledge(ctx context.Context, ownerID, monitorID uuid.UUID) error {
	const op string = "service.heartbeat.acknowledge"

	m, err := s.loadPassive(ctx, monitorID, op)
	if err != nil {
		return err
	}
	if m.OwnerID != ownerID {
		return apperror.New(apperror.Forbidden, op, nil).
			WithMessage("monitor belongs to another owner")
	}
	if m.LastStatus != monitor.HeartbeatDown {
		return apperror.New(apperror.Conflict, op, nil).
			WithMessage("only a DOWN monitor can be acknowledged")
	}

	if err := s.monitors.UpdateHeartbeatState(ctx, monitorID, monitor.HeartbeatAcknowledged, m.LastPingAt); err != nil {
		return err
	}
	_ = s.cache.DelMonitor(ctx, monitorID)
	return nil
}

// History lists the raw heartbeat records for the owner's monitor.
func (s *Service) History(ctx context.Context, ownerID, monitorID uuid.UUID, since time.Time) ([]HeartbeatRecord, error) {
	const op string = "service.heartbeat.history"

	m, err := s.loadPassive(ctx, monitorID, op)
	if err != nil {
		return nil, err
	}
	if m.OwnerID != ownerID {
		return nil, apperror.New(apperror.Forbidden, op, nil).
			WithMessage("monitor belongs to another owner")
	}
	return s.records.ListSince(ctx, monitorID, since)
}

// ExpireOverdue scans every passive monitor and flips the ones whose
// heartbeat deadline has passed. The deadline is lastPingAt + expected
// interval + grace period; a monitor is overdue only strictly after it, so
// a ping landing exactly at the deadline still counts.
func (s *Service) ExpireOverdue(ctx context.Context) error {
	const op string = "service.heartbeat.expire_overdue"

	monitors, err := s.monitors.ListPassive(ctx)
	if err != nil {
		return apperror.New(apperror.Dependency, op, err)
	}

	now := s.now()
	for i := range monitors {
		m := monitors[i]
		if m.LastStatus != monitor.HeartbeatUp {
			// DOWN already has an incident; ACKNOWLEDGED is muted
			continue
		}

		deadline := m.LastPingAt.
			Add(time.Duration(m.ExpectedIntervalSec) * time.Second).
			Add(time.Duration(m.GracePeriodSec) * time.Second)
		if !now.After(deadline) {
			continue
		}

		if err := s.expireOne(ctx, &m, now); err != nil {
			s.logger.Error().Err(err).
				Str("monitor_id", m.ID.String()).
				Msg("failed to expire overdue heartbeat")
		}
	}
	return nil
}

func (s *Service) expireOne(ctx context.Context, m *monitor.Monitor, now time.Time) error {
	if err := s.records.Create(ctx, HeartbeatRecord{
		MonitorID: m.ID,
		Status:    monitor.HeartbeatDown,
		Timestamp: now,
	}); err != nil {
		return err
	}
	if err := s.monitors.UpdateHeartbeatState(ctx, m.ID, monitor.HeartbeatDown, m.LastPingAt); err != nil {
		return err
	}
	_ = s.cache.DelMonitor(ctx, m.ID)

	s.logger.Warn().
		Str("monitor_id", m.ID.String()).
		Time("last_ping_at", m.LastPingAt).
		Msg("heartbeat overdue, monitor marked down")

	return s.sink.ApplyStatus(ctx, m, status.Bad, "heartbeat not received in time", "HEARTBEAT_TIMEOUT")
}

func (s *Service) loadPassive(ctx context.Context, monitorID uuid.UUID, op string) (monitor.Monitor, error) {
	m, err := s.monitors.GetByID(ctx, monitorID)
	if err != nil {
		return monitor.Monitor{}, err
	}
	if m.Kind != monitor.KindPassive {
		return monitor.Monitor{}, apperror.New(apperror.InvalidInput, op, nil).
			WithMessage("monitor does not accept heartbeats")
	}
	if m.Disabled {
		return monitor.Monitor{}, apperror.New(apperror.Conflict, op, nil).
			WithMessage("monitor is disabled")
	}
	return m, nil
}
