package monitor

import (
	"fmt"
	"time"

	"github.com/milankatira/uptime-sub000/internals/modules/notify"

	"github.com/google/uuid"
)

type Kind string

const (
	KindActive  Kind = "active"  // polled over HTTP on an interval
	KindPassive Kind = "passive" // expects inbound heartbeat pings
)

// HeartbeatStatus is the last known state of a passive monitor.
type HeartbeatStatus string

const (
	HeartbeatUp           HeartbeatStatus = "UP"
	HeartbeatDown         HeartbeatStatus = "DOWN"
	HeartbeatAcknowledged HeartbeatStatus = "ACKNOWLEDGED"
)

// EscalationPolicy decides which notification channels fan out when a
// passive monitor opens an incident.
type EscalationPolicy struct {
	Call         bool   `json:"call"`
	SMS          bool   `json:"sms"`
	Email        bool   `json:"email"`
	Push         bool   `json:"push"`
	Critical     bool   `json:"critical"`
	FallbackRule string `json:"fallback_rule"`
}

// MaintenanceWindow suppresses incident opening while it is active.
// Start and End are wall-clock times in "15:04" form, interpreted in
// Timezone. A window with End before Start wraps past midnight.
type MaintenanceWindow struct {
	Days     []time.Weekday `json:"days"`
	Start    string         `json:"start"`
	End      string         `json:"end"`
	Timezone string         `json:"timezone"`
}

type Monitor struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Kind      Kind
	Name      string
	Disabled  bool
	CreatedAt time.Time

	// active variant
	TargetURL   string
	IntervalSec int32

	// passive variant
	ExpectedIntervalSec int32
	GracePeriodSec      int32
	LastStatus          HeartbeatStatus
	LastPingAt          time.Time
	Escalation          EscalationPolicy
	Maintenance         []MaintenanceWindow
}

const clockLayout = "15:04"

func (w MaintenanceWindow) Validate() error {
	if len(w.Days) == 0 {
		return fmt.Errorf("maintenance window needs at least one day")
	}
	for _, d := range w.Days {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("invalid weekday %d", d)
		}
	}
	if _, err := time.Parse(clockLayout, w.Start); err != nil {
		return fmt.Errorf("invalid start time %q: %w", w.Start, err)
	}
	if _, err := time.Parse(clockLayout, w.End); err != nil {
		return fmt.Errorf("invalid end time %q: %w", w.End, err)
	}
	if _, err := time.LoadLocation(w.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", w.Timezone, err)
	}
	return nil
}

// Contains reports whether t falls inside the window. Windows validated at
// ingestion, so parse errors here just report false.
func (w MaintenanceWindow) Contains(t time.Time) bool {
	loc, err := time.LoadLocation(w.Timezone)
	if err != nil {
		return false
	}
	local := t.In(loc)

	start, err := time.Parse(clockLayout, w.Start)
	if err != nil {
		return false
	}
	end, err := time.Parse(clockLayout, w.End)
	if err != nil {
		return false
	}

	startMin := start.Hour()*60 + start.Minute()
	endMin := end.Hour()*60 + end.Minute()
	nowMin := local.Hour()*60 + local.Minute()

	onDay := func(d time.Weekday) bool {
		for _, wd := range w.Days {
			if wd == d {
				return true
			}
		}
		return false
	}

	if startMin <= endMin {
		return onDay(local.Weekday()) && nowMin >= startMin && nowMin < endMin
	}

	// wraps midnight: the tail belongs to the previous configured day
	if nowMin >= startMin {
		return onDay(local.Weekday())
	}
	if nowMin < endMin {
		return onDay(local.Add(-24 * time.Hour).Weekday())
	}
	return false
}

// InMaintenance reports whether any configured window covers t.
func (m *Monitor) InMaintenance(t time.Time) bool {
	for _, w := range m.Maintenance {
		if w.Contains(t) {
			return true
		}
	}
	return false
}

// Channels maps the escalation policy onto the dispatcher's channel names.
// Call and SMS have no wired integration; critical incidents always add the
// chat webhook. An empty selection falls back to the webhook so an incident
// is never silently unannounced.
func (p EscalationPolicy) Channels() []string {
	var out []string
	if p.Email {
		out = append(out, notify.ChannelEmail)
	}
	if p.Push {
		out = append(out, notify.ChannelPush)
	}
	if p.Critical {
		out = append(out, notify.ChannelWebhook)
	}
	if len(out) == 0 {
		out = append(out, notify.ChannelWebhook)
	}
	return out
}
