package monitor

import (
	"context"

	"github.com/google/uuid"
)

// Cache is the read-through config cache the worker pool hits before the
// database. Implemented by pkg/redisstore.
type Cache interface {
	GetMonitor(ctx context.Context, id uuid.UUID) (Monitor, bool)
	SetMonitor(ctx context.Context, m Monitor) error
	DelMonitor(ctx context.Context, id uuid.UUID) error
	DelStatus(ctx context.Context, id uuid.UUID) error
}
