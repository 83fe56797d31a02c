package monitor

import "time"

type CreateMonitorRequest struct {
	Kind string `json:"kind" validate:"required,oneof=active passive"`
	Name string `json:"name" validate:"required,max=120"`

	// active variant
	TargetURL   string `json:"target_url" validate:"omitempty,url"`
	IntervalSec int32  `json:"interval_sec" validate:"omitempty,gte=1"`

	// passive variant
	ExpectedIntervalSec int32               `json:"expected_interval_sec" validate:"omitempty,gte=1"`
	GracePeriodSec      int32               `json:"grace_period_sec" validate:"omitempty,gte=0"`
	Escalation          *EscalationPolicy   `json:"escalation"`
	Maintenance         []MaintenanceWindow `json:"maintenance"`
}

type MonitorResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Name      string    `json:"name"`
	Disabled  bool      `json:"disabled"`
	CreatedAt time.Time `json:"created_at"`

	TargetURL   string `json:"target_url,omitempty"`
	IntervalSec int32  `json:"interval_sec,omitempty"`

	ExpectedIntervalSec int32               `json:"expected_interval_sec,omitempty"`
	GracePeriodSec      int32               `json:"grace_period_sec,omitempty"`
	LastStatus          string              `json:"last_status,omitempty"`
	LastPingAt          *time.Time          `json:"last_ping_at,omitempty"`
	Escalation          *EscalationPolicy   `json:"escalation,omitempty"`
	Maintenance         []MaintenanceWindow `json:"maintenance,omitempty"`
}

type ListMonitorsResponse struct {
	Limit    int32             `json:"limit"`
	Offset   int32             `json:"offset"`
	Monitors []MonitorResponse `json:"monitors"`
}

type UpsertScheduleRequest struct {
	IntervalSec int32 `json:"interval_sec" validate:"required,gte=1"`
}

type UpdateMonitorStatusRequest struct {
	Enable *bool `json:"enable" validate:"required"`
}

type MonitorStatusResponse struct {
	Status        string     `json:"status"`
	LastCheckedAt *time.Time `json:"last_checked_at,omitempty"`
}

type TickResponse struct {
	Status        string    `json:"status"`
	LatencyMillis int64     `json:"latency_ms"`
	ObservedAt    time.Time `json:"observed_at"`
}

func toMonitorResponse(m *Monitor) MonitorResponse {
	resp := MonitorResponse{
		ID:        m.ID.String(),
		Kind:      string(m.Kind),
		Name:      m.Name,
		Disabled:  m.Disabled,
		CreatedAt: m.CreatedAt,
	}

	switch m.Kind {
	case KindActive:
		resp.TargetURL = m.TargetURL
		resp.IntervalSec = m.IntervalSec
	case KindPassive:
		resp.ExpectedIntervalSec = m.ExpectedIntervalSec
		resp.GracePeriodSec = m.GracePeriodSec
		resp.LastStatus = string(m.LastStatus)
		if !m.LastPingAt.IsZero() {
			t := m.LastPingAt
			resp.LastPingAt = &t
		}
		esc := m.Escalation
		resp.Escalation = &esc
		resp.Maintenance = m.Maintenance
	}

	return resp
}
