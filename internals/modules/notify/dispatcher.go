package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event is one incident-open notification to fan out. Channels carries the
// channel names selected by the incident engine; unknown names are logged
// and skipped.
type Event struct {
	IncidentID  uuid.UUID
	MonitorID   uuid.UUID
	MonitorName string
	Cause       string
	ErrorCode   string
	StartedAt   time.Time
	Channels    []string
}

// Channel delivers one notification over one transport. Send failures are
// the channel's own problem to report; the dispatcher only logs them.
type Channel interface {
	Name() string
	Send(ctx context.Context, e Event) error
}

type Dispatcher struct {
	// lifecycle
	workerCount int
	workerWG    sync.WaitGroup

	// channels
	events chan Event

	// transports
	channels map[string]Channel

	// misc
	sendTimeout time.Duration
	logger      *zerolog.Logger
}

func NewDispatcher(workerCount, queueSize int, sendTimeout time.Duration, channels []Channel, logger *zerolog.Logger) *Dispatcher {
	byName := make(map[string]Channel, len(channels))
	for _, ch := range channels {
		byName[ch.Name()] = ch
	}

	return &Dispatcher{
		workerCount: workerCount,
		events:      make(chan Event, queueSize),
		channels:    byName,
		sendTimeout: sendTimeout,
		logger:      logger,
	}
}

// Start starts the dispatch workers.
func (d *Dispatcher) Start() {
	d.workerWG.Add(d.workerCount)

	for range d.workerCount {
		go d.handleEvents()
	}
}

// Publish enqueues an event without blocking the caller. A full queue drops
// the event; the incident itself is already persisted and queryable.
func (d *Dispatcher) Publish(e Event) bool {
	select {
	case d.events <- e:
		return true
	default:
		d.logger.Error().
			Str("incident_id", e.IncidentID.String()).
			Msg("notification queue full, event dropped")
		return false
	}
}

func (d *Dispatcher) handleEvents() {
	defer d.workerWG.Done()

	for e := range d.events {
		d.fanOut(e)
	}
}

// fanOut sends the event over every selected channel. Each dispatch is
// independently fault-isolated: one channel failing never stops the rest.
func (d *Dispatcher) fanOut(e Event) {
	for _, name := range e.Channels {
		ch, ok := d.channels[name]
		if !ok {
			d.logger.Warn().
				Str("channel", name).
				Str("incident_id", e.IncidentID.String()).
				Msg("no transport configured for channel")
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
		err := ch.Send(ctx, e)
		cancel()

		if err != nil {
			d.logger.Error().
				Err(err).
				Str("channel", name).
				Str("incident_id", e.IncidentID.String()).
				Msg("notification dispatch failed")
			continue
		}

		d.logger.Info().
			Str("channel", name).
			Str("incident_id", e.IncidentID.String()).
			Msg("notification dispatched")
	}
}

// Shutdown stops accepting events and waits for in-flight sends.
func (d *Dispatcher) Shutdown() {
	close(d.events)
	d.workerWG.Wait()
}
