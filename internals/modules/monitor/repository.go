package monitor

import (
	"context"
	"encoding/json"
	"time"

	"github.com/milankatira/uptime-sub000/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
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

const monitorColumns = `id, owner_id, kind, name, disabled, created_at,
	target_url, interval_sec,
	expected_interval_sec, grace_period_sec, last_status, last_ping_at,
	escalation, maintenance`

func (r *Repository) Create(ctx context.Context, m Monitor) (uuid.UUID, error) {
	const op string = "repo.monitor.create"

	escalation, err := json.Marshal(m.Escalation)
	if err != nil {
		return uuid.Nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	maintenance, err := json.Marshal(m.Maintenance)
	if err != nil {
		return uuid.Nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	var id uuid.UUID
	err = r.pool.QueryRow(ctx,
		`INSERT INTO monitors (
			owner_id, kind, name, disabled,
			target_url, interval_sec,
			expected_interval_sec, grace_period_sec, last_status, last_ping_at,
			escalation, maintenance
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id`,
		utils.ToPgUUID(m.OwnerID),
		string(m.Kind),
		m.Name,
		m.Disabled,
		utils.ToPgText(m.TargetURL),
		m.IntervalSec,
		m.ExpectedIntervalSec,
		m.GracePeriodSec,
		utils.ToPgText(string(m.LastStatus)),
		utils.ToPgTimestamptz(m.LastPingAt),
		escalation,
		maintenance,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	return id, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Monitor, error) {
	const op string = "repo.monitor.get_by_id"

	row := r.pool.QueryRow(ctx,
		`SELECT `+monitorColumns+` FROM monitors WHERE id = $1`,
		utils.ToPgUUID(id),
	)

	m, err := scanMonitor(row)
	if err != nil {
		return Monitor{}, utils.WrapRepoError(op, err, true, r.logger)
	}
	return m, nil
}

// ListActive returns all non-disabled active (polled) monitors. Used only
// by the scheduler's startup reconcile.
func (r *Repository) ListActive(ctx context.Context) ([]Monitor, error) {
	const op string = "repo.monitor.list_active"

	rows, err := r.pool.Query(ctx,
		`SELECT `+monitorColumns+` FROM monitors
		 WHERE kind = $1 AND disabled = false`,
		string(KindActive),
	)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	return collectMonitors(rows, op, r.logger)
}

// ListPassive returns all non-disabled heartbeat monitors for the expiry
// watcher scan.
func (r *Repository) ListPassive(ctx context.Context) ([]Monitor, error) {
	const op string = "repo.monitor.list_passive"

	rows, err := r.pool.Query(ctx,
		`SELECT `+monitorColumns+` FROM monitors
		 WHERE kind = $1 AND disabled = false`,
		string(KindPassive),
	)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	return collectMonitors(rows, op, r.logger)
}

func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int32) ([]Monitor, error) {
	const op string = "repo.monitor.list_by_owner"

	rows, err := r.pool.Query(ctx,
		`SELECT `+monitorColumns+` FROM monitors
		 WHERE owner_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		utils.ToPgUUID(ownerID), limit, offset,
	)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	return collectMonitors(rows, op, r.logger)
}

func (r *Repository) UpdateInterval(ctx context.Context, id uuid.UUID, intervalSec int32) (bool, error) {
	const op string = "repo.monitor.update_interval"

	tag, err := r.pool.Exec(ctx,
		`UPDATE monitors SET interval_sec = $2 WHERE id = $1`,
		utils.ToPgUUID(id), intervalSec,
	)
	if err != nil {
		return false, utils.WrapRepoError(op, err, false, r.logger)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) SetDisabled(ctx context.Context, id uuid.UUID, disabled bool) (bool, error) {
	const op string = "repo.monitor.set_disabled"

	tag, err := r.pool.Exec(ctx,
		`UPDATE monitors SET disabled = $2 WHERE id = $1`,
		utils.ToPgUUID(id), disabled,
	)
	if err != nil {
		return false, utils.WrapRepoError(op, err, false, r.logger)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) UpdateHeartbeatState(ctx context.Context, id uuid.UUID, status HeartbeatStatus, lastPingAt time.Time) error {
	const op string = "repo.monitor.update_heartbeat_state"

	_, err := r.pool.Exec(ctx,
		`UPDATE monitors SET last_status = $2, last_ping_at = $3 WHERE id = $1`,
		utils.ToPgUUID(id),
		string(status),
		utils.ToPgTimestamptz(lastPingAt),
	)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	const op string = "repo.monitor.delete"

	tag, err := r.pool.Exec(ctx,
		`DELETE FROM monitors WHERE id = $1`,
		utils.ToPgUUID(id),
	)
	if err != nil {
		return false, utils.WrapRepoError(op, err, false, r.logger)
	}
	return tag.RowsAffected() > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMonitor(row rowScanner) (Monitor, error) {
	var (
		m           Monitor
		kind        string
		targetURL   pgtype.Text
		lastStatus  pgtype.Text
		lastPingAt  pgtype.Timestamptz
		escalation  []byte
		maintenance []byte
	)

	err := row.Scan(
		&m.ID, &m.OwnerID, &kind, &m.Name, &m.Disabled, &m.CreatedAt,
		&targetURL, &m.IntervalSec,
		&m.ExpectedIntervalSec, &m.GracePeriodSec, &lastStatus, &lastPingAt,
		&escalation, &maintenance,
	)
	if err != nil {
		return Monitor{}, err
	}

	m.Kind = Kind(kind)
	m.TargetURL = utils.FromPgText(targetURL)
	m.LastStatus = HeartbeatStatus(utils.FromPgText(lastStatus))
	m.LastPingAt = utils.FromPgTimestamptz(lastPingAt)

	if len(escalation) > 0 {
		if err := json.Unmarshal(escalation, &m.Escalation); err != nil {
			return Monitor{}, err
		}
	}
	if len(maintenance) > 0 {
		if err := json.Unmarshal(maintenance, &m.Maintenance); err != nil {
			return Monitor{}, err
		}
	}

	return m, nil
}

type pgRows interface {
	Next() bool
	Err() error
	Scan(dest ...any) error
}

func collectMonitors(rows pgRows, op string, logger *zerolog.Logger) ([]Monitor, error) {
	var monitors []Monitor
	for rows.Next() {
		m, err := scanMonitor(rows)
		if err != nil {
			return nil, utils.WrapRepoError(op, err, false, logger)
		}
		monitors = append(monitors, m)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, logger)
	}
	return monitors, nil
}
