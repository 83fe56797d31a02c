package tick

import (
	"context"
	"time"

	"github.com/milankatira/uptime-sub000/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type Repository struct {
	pool   *pgxpool.Pool
	logger *zerolog.Logger
}

func NewRepository(pool *pgxpool.Pool, logger *zerolog.Logger) *Repository {
	return &Repository{
		pool:   pool,
		logger: logger,
	}
}

func (r *Repository) Create(ctx context.Context, t Tick) error {
	const op string = "repo.tick.create"

	_, err := r.pool.Exec(ctx,
		`INSERT INTO ticks (monitor_id, status, latency_ms, observed_at)
		 VALUES ($1, $2, $3, $4)`,
		utils.ToPgUUID(t.MonitorID),
		string(t.Status),
		t.LatencyMillis,
		utils.ToPgTimestamptz(t.ObservedAt),
	)
	if err == nil {
		return nil
	}

	return utils.WrapRepoError(op, err, false, r.logger)
}

// ListSince returns the monitor's ticks with observed_at >= since,
// oldest first.
func (r *Repository) ListSince(ctx context.Context, monitorID uuid.UUID, since time.Time) ([]Tick, error) {
	const op string = "repo.tick.list_since"

	rows, err := r.pool.Query(ctx,
		`SELECT monitor_id, status, latency_ms, observed_at
		 FROM ticks
		 WHERE monitor_id = $1 AND observed_at >= $2
		 ORDER BY observed_at ASC`,
		utils.ToPgUUID(monitorID),
		utils.ToPgTimestamptz(since),
	)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	var ticks []Tick
	for rows.Next() {
		var t Tick
		var status string
		if err := rows.Scan(&t.MonitorID, &status, &t.LatencyMillis, &t.ObservedAt); err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		t.Status = Status(status)
		ticks = append(ticks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	return ticks, nil
}
