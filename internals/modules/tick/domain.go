package tick

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusGood Status = "GOOD"
	StatusBad  Status = "BAD"
)

// Tick is one recorded outcome of an active probe. Ticks are append-only,
// ordered by ObservedAt, and never mutated after creation.
type Tick struct {
	MonitorID     uuid.UUID
	Status        Status
	LatencyMillis int64
	ObservedAt    time.Time
}
