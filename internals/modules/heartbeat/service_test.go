package heartbeat

import (
	"context"
	"testing"
	"time"

	"github.com/milankatira/uptime-sub000/internals/modules/monitor"
	"github.com/milankatira/uptime-sub000/internals/modules/status"
	"github.com/milankatira/uptime-sub000/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type fakeMonitorStore struct {
	monitors map[uuid.UUID]monitor.Monitor
}

func (f *fakeMonitorStore) GetByID(_ context.Context, id uuid.UUID) (monitor.Monitor, error) {
	m, ok := f.monitors[id]
	if !ok {
		return monitor.Monitor{}, apperror.New(apperror.NotFound, "test.get", nil)
	}
	return m, nil
}

func (f *fakeMonitorStore) ListPassive(_ context.Context) ([]monitor.Monitor, error) {
	var out []monitor.Monitor
	for _, m := range f.monitors {
		if m.Kind == monitor.KindPassive && !m.Disabled {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMonitorStore) UpdateHeartbeatState(_ context.Context, id uuid.UUID, s monitor.HeartbeatStatus, lastPingAt time.Time) error {
	m := f.monitors[id]
	m.LastStatus = s
	m.LastPingAt = lastPingAt
	f.monitors[id] = m
	return nil
}

type fakeRecordStore struct {
	created []HeartbeatRecord
}

func (f *fakeRecordStore) Create(_ context.Context, rec HeartbeatRecord) error {
	f.created = append(f.created, rec)
	return nil
}

func (f *fakeRecordStore) ListSince(_ context.Context, _ uuid.UUID, _ time.Time) ([]HeartbeatRecord, error) {
	return f.created, nil
}

type fakeCache struct{}

func (fakeCache) DelMonitor(_ context.Context, _ uuid.UUID) error { return nil }

type applied struct {
	health    status.Health
	errorCode string
}

type fakeSink struct {
	applied []applied
}

func (f *fakeSink) ApplyStatus(_ context.Context, _ *monitor.Monitor, h status.Health, _, errorCode string) error {
	f.applied = append(f.applied, applied{health: h, errorCode: errorCode})
	return nil
}

func passiveMonitor(id uuid.UUID, lastPing time.Time) monitor.Monitor {
	return monitor.Monitor{
		ID:                  id,
		OwnerID:             uuid.New(),
		Kind:                monitor.KindPassive,
		Name:                "cron-backup",
		ExpectedIntervalSec: 60,
		GracePeriodSec:      30,
		LastStatus:          monitor.HeartbeatUp,
		LastPingAt:          lastPing,
	}
}

func newTestService(store *fakeMonitorStore, records *fakeRecordStore, sink *fakeSink, now time.Time) *Service {
	logger := zerolog.Nop()
	s := NewService(store, records, fakeCache{}, sink, &logger)
	s.now = func() time.Time { return now }
	return s
}

func TestPing_UpRecordsAndResolves(t *testing.T) {
	id := uuid.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeMonitorStore{monitors: map[uuid.UUID]monitor.Monitor{
		id: passiveMonitor(id, now.Add(-time.Minute)),
	}}
	records := &fakeRecordStore{}
	sink := &fakeSink{}
	s := newTestService(store, records, sink, now)

	if err := s.Ping(context.Background(), id, monitor.HeartbeatUp); err != nil {
		t.Fatalf("ping: %v", err)
	}

	if len(records.created) != 1 || records.created[0].Status != monitor.HeartbeatUp {
		t.Fatalf("want one UP record, got %+v", records.created)
	}
	m := store.monitors[id]
	if m.LastStatus != monitor.HeartbeatUp || !m.LastPingAt.Equal(now) {
		t.Fatalf("monitor state not advanced: %+v", m)
	}
	if len(sink.applied) != 1 || sink.applied[0].health != status.Good {
		t.Fatalf("want GOOD applied, got %+v", sink.applied)
	}
}

func TestPing_DownOpensImmediately(t *testing.T) {
	id := uuid.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeMonitorStore{monitors: map[uuid.UUID]monitor.Monitor{
		id: passiveMonitor(id, now.Add(-time.Minute)),
	}}
	sink := &fakeSink{}
	s := newTestService(store, &fakeRecordStore{}, sink, now)

	if err := s.Ping(context.Background(), id, monitor.HeartbeatDown); err != nil {
		t.Fatalf("ping: %v", err)
	}

	if len(sink.applied) != 1 || sink.applied[0].health != status.Bad {
		t.Fatalf("want BAD applied, got %+v", sink.applied)
	}
	if sink.applied[0].errorCode != "HEARTBEAT_DOWN" {
		t.Fatalf("want HEARTBEAT_DOWN, got %q", sink.applied[0].errorCode)
	}
}

func TestPing_RejectsBadInput(t *testing.T) {
	id := uuid.New()
	now := time.Now()
	store := &fakeMonitorStore{monitors: map[uuid.UUID]monitor.Monitor{
		id: passiveMonitor(id, now),
	}}
	s := newTestService(store, &fakeRecordStore{}, &fakeSink{}, now)

	if err := s.Ping(context.Background(), id, monitor.HeartbeatAcknowledged); !apperror.IsKind(err, apperror.InvalidInput) {
		t.Fatalf("ACKNOWLEDGED is not a reportable status, got %v", err)
	}

	active := monitor.Monitor{ID: uuid.New(), Kind: monitor.KindActive, TargetURL: "http://x", IntervalSec: 30}
	store.monitors[active.ID] = active
	if err := s.Ping(context.Background(), active.ID, monitor.HeartbeatUp); !apperror.IsKind(err, apperror.InvalidInput) {
		t.Fatalf("active monitor must not accept heartbeats, got %v", err)
	}
}

func TestExpireOverdue_PastDeadlineGoesDown(t *testing.T) {
	id := uuid.New()
	lastPing := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeMonitorStore{monitors: map[uuid.UUID]monitor.Monitor{
		id: passiveMonitor(id, lastPing),
	}}
	records := &fakeRecordStore{}
	sink := &fakeSink{}

	// expected 60s + grace 30s, one second past the deadline
	s := newTestService(store, records, sink, lastPing.Add(91*time.Second))

	if err := s.ExpireOverdue(context.Background()); err != nil {
		t.Fatalf("expire: %v", err)
	}

	m := store.monitors[id]
	if m.LastStatus != monitor.HeartbeatDown {
		t.Fatalf("want DOWN, got %s", m.LastStatus)
	}
	if !m.LastPingAt.Equal(lastPing) {
		t.Fatalf("expiry must not fabricate a ping time")
	}
	if len(records.created) != 1 || records.created[0].Status != monitor.HeartbeatDown {
		t.Fatalf("want one synthesized DOWN record, got %+v", records.created)
	}
	if len(sink.applied) != 1 || sink.applied[0].errorCode != "HEARTBEAT_TIMEOUT" {
		t.Fatalf("want HEARTBEAT_TIMEOUT applied, got %+v", sink.applied)
	}
}

func TestExpireOverdue_WithinGraceStaysUp(t *testing.T) {
	id := uuid.New()
	lastPing := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeMonitorStore{monitors: map[uuid.UUID]monitor.Monitor{
		id: passiveMonitor(id, lastPing),
	}}
	sink := &fakeSink{}

	s := newTestService(store, &fakeRecordStore{}, sink, lastPing.Add(89*time.Second))

	if err := s.ExpireOverdue(context.Background()); err != nil {
		t.Fatalf("expire: %v", err)
	}
	if store.monitors[id].LastStatus != monitor.HeartbeatUp {
		t.Fatalf("monitor inside grace must stay UP")
	}
	if len(sink.applied) != 0 {
		t.Fatalf("no transition expected, got %+v", sink.applied)
	}
}

func TestExpireOverdue_ExactDeadlineIsNotOverdue(t *testing.T) {
	id := uuid.New()
	lastPing := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeMonitorStore{monitors: map[uuid.UUID]monitor.Monitor{
		id: passiveMonitor(id, lastPing),
	}}

	s := newTestService(store, &fakeRecordStore{}, &fakeSink{}, lastPing.Add(90*time.Second))

	if err := s.ExpireOverdue(context.Background()); err != nil {
		t.Fatalf("expire: %v", err)
	}
	if store.monitors[id].LastStatus != monitor.HeartbeatUp {
		t.Fatalf("overdue is strictly after the deadline")
	}
}

func TestExpireOverdue_SkipsDownAndAcknowledged(t *testing.T) {
	lastPing := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	down := passiveMonitor(uuid.New(), lastPing)
	down.LastStatus = monitor.HeartbeatDown
	acked := passiveMonitor(uuid.New(), lastPing)
	acked.LastStatus = monitor.HeartbeatAcknowledged

	store := &fakeMonitorStore{monitors: map[uuid.UUID]monitor.Monitor{
		down.ID:  down,
		acked.ID: acked,
	}}
	sink := &fakeSink{}

	s := newTestService(store, &fakeRecordStore{}, sink, lastPing.Add(time.Hour))

	if err := s.ExpireOverdue(context.Background()); err != nil {
		t.Fatalf("expire: %v", err)
	}
	if len(sink.applied) != 0 {
		t.Fatalf("DOWN and ACKNOWLEDGED monitors must not re-fire, got %+v", sink.applied)
	}
}

func TestAcknowledge_Transitions(t *testing.T) {
	id := uuid.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	m := passiveMonitor(id, now.Add(-time.Hour))
	m.LastStatus = monitor.HeartbeatDown
	store := &fakeMonitorStore{monitors: map[uuid.UUID]monitor.Monitor{id: m}}
	s := newTestService(store, &fakeRecordStore{}, &fakeSink{}, now)

	if err := s.Acknowledge(context.Background(), uuid.New(), id); !apperror.IsKind(err, apperror.Forbidden) {
		t.Fatalf("foreign owner must be forbidden, got %v", err)
	}

	if err := s.Acknowledge(context.Background(), m.OwnerID, id); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	if store.monitors[id].LastStatus != monitor.HeartbeatAcknowledged {
		t.Fatalf("want ACKNOWLEDGED, got %s", store.monitors[id].LastStatus)
	}

	// already acknowledged, second attempt conflicts
	if err := s.Acknowledge(context.Background(), m.OwnerID, id); !apperror.IsKind(err, apperror.Conflict) {
		t.Fatalf("re-acknowledge must conflict, got %v", err)
	}
}
