package rabbitmq

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

type CheckService interface {
	HandleCheck(ctx context.Context, monitorID uuid.UUID) error
}

type CheckHandler struct {
	service CheckService
}

func NewCheckHandler(svc CheckService) *CheckHandler {
	return &CheckHandler{
		service: svc,
	}
}

func (h *CheckHandler) Handle(ctx context.Context, msg amqp091.Delivery) error {
	var task TaskPayload
	if err := json.Unmarshal(msg.Body, &task); err != nil {
		return err
	}

	if task.MonitorID == uuid.Nil {
		return nil // malformed task, drop it
	}

	return h.service.HandleCheck(ctx, task.MonitorID)
}
