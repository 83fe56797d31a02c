package heartbeat

import (
	"time"

	"github.com/milankatira/uptime-sub000/internals/modules/monitor"

	"github.com/google/uuid"
)

// HeartbeatRecord is one observed ping (or a synthesized DOWN when the
// expiry watcher fires). Append-only, like ticks.
type HeartbeatRecord struct {
	MonitorID uuid.UUID
	Status    monitor.HeartbeatStatus
	Timestamp time.Time
}
