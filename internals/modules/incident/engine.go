package incident

import (
	"context"
	"sync"
	"time"

	"github.com/milankatira/uptime-sub000/internals/modules/monitor"
	"github.com/milankatira/uptime-sub000/internals/modules/notify"
	"github.com/milankatira/uptime-sub000/internals/modules/status"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store is the slice of incident persistence the engine drives. The Create
// implementation must discard a racing duplicate for the same monitor
// (returning created=false) rather than persist it.
type Store interface {
	GetOpen(ctx context.Context, monitorID uuid.UUID) (*Incident, error)
	Create(ctx context.Context, inc Incident) (uuid.UUID, bool, error)
	Resolve(ctx context.Context, id uuid.UUID, durationSeconds int64) (bool, error)
	AppendTimeline(ctx context.Context, e TimelineEntry) error
}

// Notifier fans an incident-open event out over notification channels.
type Notifier interface {
	Publish(e notify.Event) bool
}

// Engine applies aggregated status transitions to the incident lifecycle:
// NoIncident -> Ongoing -> Resolved. At most one ongoing incident may exist
// per monitor; transitions for one monitor are serialized with a per-monitor
// lock and the store's conditional create acts as the compare-and-set
// backstop when several processes race.
type Engine struct {
	store      Store
	dispatcher Notifier
	logger     *zerolog.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex

	now func() time.Time
}

func NewEngine(store Store, dispatcher Notifier, logger *zerolog.Logger) *Engine {
	return &Engine{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
		locks:      make(map[uuid.UUID]*sync.Mutex),
		now:        time.Now,
	}
}

func (e *Engine) lockFor(monitorID uuid.UUID) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, ok := e.locks[monitorID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[monitorID] = l
	}
	return l
}

// ApplyStatus reacts to the monitor's latest aggregated health. Unknown
// never transitions anything, so a flapping monitor cannot open or close
// incidents.
func (e *Engine) ApplyStatus(ctx context.Context, mon *monitor.Monitor, health status.Health, cause, errorCode string) error {
	if health == status.Unknown {
		return nil
	}

	l := e.lockFor(mon.ID)
	l.Lock()
	defer l.Unlock()

	open, err := e.store.GetOpen(ctx, mon.ID)
	if err != nil {
		return err
	}

	switch health {
	case status.Bad:
		if open != nil {
			// already ongoing, nothing to open
			return nil
		}
		return e.open(ctx, mon, cause, errorCode)

	case status.Good:
		if open == nil {
			return nil
		}
		return e.resolve(ctx, open)
	}

	return nil
}

func (e *Engine) open(ctx context.Context, mon *monitor.Monitor, cause, errorCode string) error {
	now := e.now()

	if mon.InMaintenance(now) {
		e.logger.Info().
			Str("monitor_id", mon.ID.String()).
			Msg("bad status during maintenance window, incident suppressed")
		return nil
	}

	id, created, err := e.store.Create(ctx, Incident{
		OwnerID:          mon.OwnerID,
		RelatedMonitorID: mon.ID,
		Status:           StateOngoing,
		Cause:            cause,
		ErrorCode:        errorCode,
		StartedAt:        now,
	})
	if err != nil {
		return err
	}
	if !created {
		// another writer opened the incident first, discard ours
		e.logger.Debug().
			Str("monitor_id", mon.ID.String()).
			Msg("concurrent incident creation discarded")
		return nil
	}

	if err := e.store.AppendTimeline(ctx, TimelineEntry{
		IncidentID: id,
		Type:       EntryStart,
		Message:    cause,
		Time:       now,
	}); err != nil {
		e.logger.Error().Err(err).
			Str("incident_id", id.String()).
			Msg("failed to append start timeline entry")
	}

	channels := e.channelsFor(mon)
	accepted := e.dispatcher.Publish(notify.Event{
		IncidentID:  id,
		MonitorID:   mon.ID,
		MonitorName: mon.Name,
		Cause:       cause,
		ErrorCode:   errorCode,
		StartedAt:   now,
		Channels:    channels,
	})

	// the entry records the hand-off to the dispatcher, not delivery; a
	// dropped event gets no entry at all
	if accepted {
		for _, ch := range channels {
			if ch != notify.ChannelEmail {
				continue
			}
			if err := e.store.AppendTimeline(ctx, TimelineEntry{
				IncidentID: id,
				Type:       EntryEmail,
				Message:    "incident email handed off for delivery",
				Time:       now,
			}); err != nil {
				e.logger.Error().Err(err).
					Str("incident_id", id.String()).
					Msg("failed to append email timeline entry")
			}
		}
	}

	e.logger.Info().
		Str("incident_id", id.String()).
		Str("monitor_id", mon.ID.String()).
		Str("error_code", errorCode).
		Msg("incident opened")
	return nil
}

func (e *Engine) resolve(ctx context.Context, open *Incident) error {
	now := e.now()
	duration := int64(now.Sub(open.StartedAt) / time.Second)

	resolved, err := e.store.Resolve(ctx, open.ID, duration)
	if err != nil {
		return err
	}
	if !resolved {
		// someone else closed it between our read and write
		return nil
	}

	if err := e.store.AppendTimeline(ctx, TimelineEntry{
		IncidentID: open.ID,
		Type:       EntryResolve,
		Message:    "status recovered",
		Time:       now,
	}); err != nil {
		e.logger.Error().Err(err).
			Str("incident_id", open.ID.String()).
			Msg("failed to append resolve timeline entry")
	}

	e.logger.Info().
		Str("incident_id", open.ID.String()).
		Int64("duration_seconds", duration).
		Msg("incident resolved")
	return nil
}

// channelsFor selects the notification fan-out. Active monitors use every
// configured channel; passive monitors follow their escalation policy.
func (e *Engine) channelsFor(mon *monitor.Monitor) []string {
	if mon.Kind == monitor.KindPassive {
		return mon.Escalation.Channels()
	}
	return []string{notify.ChannelWebhook, notify.ChannelEmail, notify.ChannelPush}
}
