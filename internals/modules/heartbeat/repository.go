package heartbeat

import (
	"context"
	"time"

	"github.com/milankatira/uptime-sub000/internals/modules/monitor"
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

func (r *Repository) Create(ctx context.Context, rec HeartbeatRecord) error {
	const op string = "repo.heartbeat.create"

	_, err := r.pool.Exec(ctx,
		`INSERT INTO heartbeat_records (monitor_id, status, observed_at)
		 VALUES ($1, $2, $3)`,
		utils.ToPgUUID(rec.MonitorID),
		string(rec.Status),
		utils.ToPgTimestamptz(rec.Timestamp),
	)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	return nil
}

func (r *Repository) ListSince(ctx context.Context, monitorID uuid.UUID, since time.Time) ([]HeartbeatRecord, error) {
	const op string = "repo.heartbeat.list_since"

	rows, err := r.pool.Query(ctx,
		`SELECT monitor_id, status, observed_at
		 FROM heartbeat_records
		 WHERE monitor_id = $1 AND observed_at >= $2
		 ORDER BY observed_at ASC`,
		utils.ToPgUUID(monitorID),
		utils.ToPgTimestamptz(since),
	)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	var records []HeartbeatRecord
	for rows.Next() {
		var (
			rec    HeartbeatRecord
			status string
		)
		if err := rows.Scan(&rec.MonitorID, &status, &rec.Timestamp); err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		rec.Status = monitor.HeartbeatStatus(status)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	return records, nil
}
