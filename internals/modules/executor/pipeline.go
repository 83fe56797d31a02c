package executor

import (
	"context"
	"time"

	"github.com/milankatira/uptime-sub000/internals/modules/monitor"
	"github.com/milankatira/uptime-sub000/internals/modules/status"
	"github.com/milankatira/uptime-sub000/internals/modules/tick"
	"github.com/milankatira/uptime-sub000/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// recordTimeout bounds the persistence phase after a probe returns. It is
// deliberately independent of the task context: a probe may legitimately run
// up to the monitor's own interval, past any budget the queue consumer set.
const recordTimeout = 15 * time.Second

type MonitorService interface {
	LoadMonitor(ctx context.Context, monitorID uuid.UUID) (monitor.Monitor, error)
}

type TickStore interface {
	Create(ctx context.Context, t tick.Tick) error
	ListSince(ctx context.Context, monitorID uuid.UUID, since time.Time) ([]tick.Tick, error)
}

// StatusCache keeps the latest probe outcome per monitor for cheap
// last-checked-at reads.
type StatusCache interface {
	StoreStatus(ctx context.Context, monitorID uuid.UUID, statusCode int, latencyMs int64, checkedAt time.Time) error
}

type IncidentSink interface {
	ApplyStatus(ctx context.Context, mon *monitor.Monitor, health status.Health, cause, errorCode string) error
}

// Pipeline runs one due check end to end: load config, probe, record the
// tick, recompute health, feed the incident engine. One pipeline instance
// is shared by all queue consumer workers.
type Pipeline struct {
	monitorSvc  MonitorService
	prober      *Prober
	ticks       TickStore
	statusCache StatusCache
	incidents   IncidentSink
	logger      *zerolog.Logger
	now         func() time.Time
}

func NewPipeline(
	monitorSvc MonitorService,
	prober *Prober,
	ticks TickStore,
	statusCache StatusCache,
	incidents IncidentSink,
	logger *zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		monitorSvc:  monitorSvc,
		prober:      prober,
		ticks:       ticks,
		statusCache: statusCache,
		incidents:   incidents,
		logger:      logger,
		now:         time.Now,
	}
}

// HandleCheck processes one check-due task. A missing monitor is a silent
// drop, not an error: it may have been deleted after the task was enqueued.
// Returning an error leaves the task to the queue's redelivery policy.
func (p *Pipeline) HandleCheck(ctx context.Context, monitorID uuid.UUID) error {
	mon, err := p.monitorSvc.LoadMonitor(ctx, monitorID)
	if err != nil {
		if apperror.IsKind(err, apperror.NotFound) {
			return nil
		}
		return err
	}
	if mon.Disabled || mon.Kind != monitor.KindActive {
		return nil
	}

	// the check never outlives its own schedule slot
	timeout := time.Duration(mon.IntervalSec) * time.Second
	outcome := p.prober.Probe(context.Background(), mon.TargetURL, timeout)

	// a finished probe is always recorded, even when the task context
	// expired while the probe ran
	recordCtx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	observedAt := p.now()
	t := tick.Tick{
		MonitorID:     mon.ID,
		Status:        outcome.Status,
		LatencyMillis: outcome.LatencyMillis,
		ObservedAt:    observedAt,
	}
	if err := p.ticks.Create(recordCtx, t); err != nil {
		// the check already happened, observability is best-effort
		p.logger.Error().Err(err).
			Str("monitor_id", mon.ID.String()).
			Msg("failed to persist tick")
	}

	if err := p.statusCache.StoreStatus(recordCtx, mon.ID, outcome.StatusCode, outcome.LatencyMillis, observedAt); err != nil {
		p.logger.Error().Err(err).
			Str("monitor_id", mon.ID.String()).
			Msg("failed to store latest status in cache")
	}

	history, err := p.ticks.ListSince(recordCtx, mon.ID, observedAt.Add(-status.Span))
	if err != nil {
		p.logger.Error().Err(err).
			Str("monitor_id", mon.ID.String()).
			Msg("failed to load tick history, skipping aggregation")
		return nil
	}

	health := status.Aggregate(history, observedAt)

	cause, errorCode := describeOutcome(outcome)
	if err := p.incidents.ApplyStatus(recordCtx, &mon, health, cause, errorCode); err != nil {
		p.logger.Error().Err(err).
			Str("monitor_id", mon.ID.String()).
			Msg("failed to apply status transition")
	}

	return nil
}

func describeOutcome(o ProbeOutcome) (cause string, errorCode string) {
	if o.Status == tick.StatusGood {
		return "", ""
	}
	if o.Reason != "" {
		return "health check failing", o.Reason
	}
	return "health check failing", "UNKNOWN_ERROR"
}
