package heartbeat

import "time"

type PingRequest struct {
	Status string `json:"status" validate:"required,oneof=UP DOWN"`
}

type RecordResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
