package incident

import (
	"time"

	"github.com/google/uuid"
)

type State string

const (
	StateOngoing  State = "ongoing"
	StateResolved State = "resolved"
)

// Incident is a tracked period of degraded or failed status. Resolved is
// terminal; a later bad transition opens a fresh incident instead of
// reopening this one.
type Incident struct {
	ID               uuid.UUID
	OwnerID          uuid.UUID
	RelatedMonitorID uuid.UUID // uuid.Nil for manual incidents with no monitor
	Status           State
	Cause            string
	ErrorCode        string
	StartedAt        time.Time
	DurationSeconds  int64
	CreatedAt        time.Time
}

type EntryType string

const (
	EntryStart   EntryType = "start"
	EntryComment EntryType = "comment"
	EntryEmail   EntryType = "email"
	EntryResolve EntryType = "resolve"
)

// TimelineEntry is an append-only child of an incident.
type TimelineEntry struct {
	ID         uuid.UUID
	IncidentID uuid.UUID
	Type       EntryType
	Message    string
	Time       time.Time
}
