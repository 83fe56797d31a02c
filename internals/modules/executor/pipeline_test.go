package executor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/milankatira/uptime-sub000/internals/modules/monitor"
	"github.com/milankatira/uptime-sub000/internals/modules/status"
	"github.com/milankatira/uptime-sub000/internals/modules/tick"
	"github.com/milankatira/uptime-sub000/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type fakeMonitorSvc struct {
	monitors map[uuid.UUID]monitor.Monitor
}

func (f *fakeMonitorSvc) LoadMonitor(_ context.Context, id uuid.UUID) (monitor.Monitor, error) {
	m, ok := f.monitors[id]
	if !ok {
		return monitor.Monitor{}, apperror.New(apperror.NotFound, "test.load", nil)
	}
	return m, nil
}

type fakeTickStore struct {
	created   []tick.Tick
	history   []tick.Tick
	createErr error
}

func (f *fakeTickStore) Create(ctx context.Context, t tick.Tick) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, t)
	return nil
}

func (f *fakeTickStore) ListSince(ctx context.Context, _ uuid.UUID, _ time.Time) ([]tick.Tick, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.history, nil
}

type fakeStatusCache struct {
	stored int
}

func (f *fakeStatusCache) StoreStatus(ctx context.Context, _ uuid.UUID, _ int, _ int64, _ time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.stored++
	return nil
}

type fakeIncidentSink struct {
	applied []status.Health
}

func (f *fakeIncidentSink) ApplyStatus(ctx context.Context, _ *monitor.Monitor, h status.Health, _, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.applied = append(f.applied, h)
	return nil
}

func newTestPipeline(svc *fakeMonitorSvc, ticks *fakeTickStore, sink *fakeIncidentSink) *Pipeline {
	logger := zerolog.Nop()
	return NewPipeline(svc, NewProber(), ticks, &fakeStatusCache{}, sink, &logger)
}

func TestHandleCheck_DeletedMonitorIsDroppedSilently(t *testing.T) {
	ticks := &fakeTickStore{}
	sink := &fakeIncidentSink{}
	p := newTestPipeline(&fakeMonitorSvc{monitors: map[uuid.UUID]monitor.Monitor{}}, ticks, sink)

	if err := p.HandleCheck(context.Background(), uuid.New()); err != nil {
		t.Fatalf("deleted monitor must not error: %v", err)
	}
	if len(ticks.created) != 0 || len(sink.applied) != 0 {
		t.Fatalf("dropped task must have no side effects")
	}
}

func TestHandleCheck_DisabledMonitorIsSkipped(t *testing.T) {
	id := uuid.New()
	svc := &fakeMonitorSvc{monitors: map[uuid.UUID]monitor.Monitor{
		id: {ID: id, Kind: monitor.KindActive, TargetURL: "http://localhost:1", IntervalSec: 30, Disabled: true},
	}}
	ticks := &fakeTickStore{}
	p := newTestPipeline(svc, ticks, &fakeIncidentSink{})

	if err := p.HandleCheck(context.Background(), id); err != nil {
		t.Fatalf("disabled monitor must not error: %v", err)
	}
	if len(ticks.created) != 0 {
		t.Fatalf("disabled monitor must not be probed")
	}
}

func TestHandleCheck_RecordsTickAndAppliesStatus(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))
	defer s.Close()

	id := uuid.New()
	svc := &fakeMonitorSvc{monitors: map[uuid.UUID]monitor.Monitor{
		id: {ID: id, Kind: monitor.KindActive, TargetURL: s.URL, IntervalSec: 30},
	}}
	ticks := &fakeTickStore{}
	sink := &fakeIncidentSink{}
	p := newTestPipeline(svc, ticks, sink)

	if err := p.HandleCheck(context.Background(), id); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(ticks.created) != 1 {
		t.Fatalf("want 1 tick recorded, got %d", len(ticks.created))
	}
	if ticks.created[0].Status != tick.StatusGood {
		t.Fatalf("want GOOD tick, got %s", ticks.created[0].Status)
	}
	if len(sink.applied) != 1 {
		t.Fatalf("want incident engine invoked once, got %d", len(sink.applied))
	}
}

func TestHandleCheck_TickPersistenceFailureIsNonFatal(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))
	defer s.Close()

	id := uuid.New()
	svc := &fakeMonitorSvc{monitors: map[uuid.UUID]monitor.Monitor{
		id: {ID: id, Kind: monitor.KindActive, TargetURL: s.URL, IntervalSec: 30},
	}}
	ticks := &fakeTickStore{createErr: errors.New("db unavailable")}
	sink := &fakeIncidentSink{}
	p := newTestPipeline(svc, ticks, sink)

	if err := p.HandleCheck(context.Background(), id); err != nil {
		t.Fatalf("tick write failure must not fail the task: %v", err)
	}
	if len(sink.applied) != 1 {
		t.Fatalf("aggregation must still run after a failed tick write")
	}
}

func TestHandleCheck_SlowProbeOutlivesTaskBudget(t *testing.T) {
	// target hangs past the probe deadline, and the task context expires
	// while the probe is still running
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer s.Close()

	id := uuid.New()
	svc := &fakeMonitorSvc{monitors: map[uuid.UUID]monitor.Monitor{
		id: {ID: id, Kind: monitor.KindActive, TargetURL: s.URL, IntervalSec: 1},
	}}

	now := time.Now()
	ticks := &fakeTickStore{history: []tick.Tick{
		{MonitorID: id, Status: tick.StatusBad, ObservedAt: now.Add(-8 * time.Minute)},
		{MonitorID: id, Status: tick.StatusBad, ObservedAt: now.Add(-5 * time.Minute)},
		{MonitorID: id, Status: tick.StatusBad, ObservedAt: now.Add(-2 * time.Minute)},
	}}
	sink := &fakeIncidentSink{}
	p := newTestPipeline(svc, ticks, sink)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := p.HandleCheck(ctx, id); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(ticks.created) != 1 || ticks.created[0].Status != tick.StatusBad {
		t.Fatalf("probe outcome must be recorded after the task budget expired, got %+v", ticks.created)
	}
	if len(sink.applied) != 1 || sink.applied[0] != status.Bad {
		t.Fatalf("a hung target must still drive the incident engine, got %v", sink.applied)
	}
}

func TestHandleCheck_BadHistoryOpensThroughSink(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", 503)
	}))
	defer s.Close()

	id := uuid.New()
	svc := &fakeMonitorSvc{monitors: map[uuid.UUID]monitor.Monitor{
		id: {ID: id, Kind: monitor.KindActive, TargetURL: s.URL, IntervalSec: 30},
	}}

	// history spanning three non-empty windows, all bad
	now := time.Now()
	ticks := &fakeTickStore{history: []tick.Tick{
		{MonitorID: id, Status: tick.StatusBad, ObservedAt: now.Add(-8 * time.Minute)},
		{MonitorID: id, Status: tick.StatusBad, ObservedAt: now.Add(-5 * time.Minute)},
		{MonitorID: id, Status: tick.StatusBad, ObservedAt: now.Add(-2 * time.Minute)},
	}}
	sink := &fakeIncidentSink{}
	p := newTestPipeline(svc, ticks, sink)

	if err := p.HandleCheck(context.Background(), id); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(sink.applied) != 1 || sink.applied[0] != status.Bad {
		t.Fatalf("want BAD applied to incident engine, got %v", sink.applied)
	}
}
