package rabbitmq

import (
	"github.com/google/uuid"
)

type TaskPayload struct {
	MonitorID uuid.UUID `json:"monitor_id"`
}
