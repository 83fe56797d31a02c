package heartbeat

import (
	"context"
	"time"

	"github.com/milankatira/uptime-sub000/config"

	"github.com/rs/zerolog"
)

// Watcher periodically runs the overdue scan. One instance per process is
// enough; ExpireOverdue is idempotent because only UP monitors transition.
type Watcher struct {
	ctx          context.Context
	scanInterval time.Duration
	service      *Service
	logger       *zerolog.Logger
}

func NewWatcher(ctx context.Context, cfg *config.HeartbeatConfig, service *Service, logger *zerolog.Logger) *Watcher {
	return &Watcher{
		ctx:          ctx,
		scanInterval: cfg.ScanInterval,
		service:      service,
		logger:       logger,
	}
}

func (w *Watcher) Run() {
	w.logger.Info().Msg("heartbeat watcher started")

	ticker := time.NewTicker(w.scanInterval)
	defer func() {
		ticker.Stop()
		w.logger.Info().Msg("heartbeat watcher stopped")
	}()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			if err := w.service.ExpireOverdue(w.ctx); err != nil {
				w.logger.Error().Err(err).Msg("heartbeat expiry scan failed")
			}
		}
	}
}
