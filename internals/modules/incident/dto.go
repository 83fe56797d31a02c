package incident

import (
	"time"

	"github.com/google/uuid"
)

type CreateIncidentRequest struct {
	RelatedMonitorID string `json:"related_monitor_id" validate:"omitempty,uuid"`
	Cause            string `json:"cause" validate:"required,max=500"`
	ErrorCode        string `json:"error_code" validate:"omitempty,max=64"`
}

type AddCommentRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}

type IncidentResponse struct {
	ID               string    `json:"id"`
	RelatedMonitorID string    `json:"related_monitor_id,omitempty"`
	Status           string    `json:"status"`
	Cause            string    `json:"cause"`
	ErrorCode        string    `json:"error_code,omitempty"`
	StartedAt        time.Time `json:"started_at"`
	DurationSeconds  int64     `json:"duration_seconds,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

type ListIncidentsResponse struct {
	Limit     int32              `json:"limit"`
	Offset    int32              `json:"offset"`
	Incidents []IncidentResponse `json:"incidents"`
}

type TimelineEntryResponse struct {
	Type    string    `json:"type"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

func toIncidentResponse(inc *Incident) IncidentResponse {
	resp := IncidentResponse{
		ID:              inc.ID.String(),
		Status:          string(inc.Status),
		Cause:           inc.Cause,
		ErrorCode:       inc.ErrorCode,
		StartedAt:       inc.StartedAt,
		DurationSeconds: inc.DurationSeconds,
		CreatedAt:       inc.CreatedAt,
	}
	if inc.RelatedMonitorID != uuid.Nil {
		resp.RelatedMonitorID = inc.RelatedMonitorID.String()
	}
	return resp
}
