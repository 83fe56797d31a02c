package incident

import (
	"context"
	"errors"

	"github.com/milankatira/uptime-sub000/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
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

const incidentColumns = `id, owner_id, related_monitor_id, status, cause,
	error_code, started_at, duration_seconds, created_at`

// GetOpen returns the monitor's ongoing incident, or nil when none exists.
func (r *Repository) GetOpen(ctx context.Context, monitorID uuid.UUID) (*Incident, error) {
	const op string = "repo.incident.get_open"

	row := r.pool.QueryRow(ctx,
		`SELECT `+incidentColumns+` FROM incidents
		 WHERE related_monitor_id = $1 AND status = $2`,
		utils.ToPgUUID(monitorID),
		string(StateOngoing),
	)

	inc, err := scanIncident(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	return &inc, nil
}

// Create inserts the incident. When it is tied to a monitor the insert is
// conditional on no ongoing incident existing for that monitor, so a racing
// duplicate is discarded at the database rather than persisted. The second
// return value reports whether a row was actually created.
func (r *Repository) Create(ctx context.Context, inc Incident) (uuid.UUID, bool, error) {
	const op string = "repo.incident.create"

	var (
		id  uuid.UUID
		err error
	)

	if inc.RelatedMonitorID != uuid.Nil {
		err = r.pool.QueryRow(ctx,
			`INSERT INTO incidents (owner_id, related_monitor_id, status, cause, error_code, started_at)
			 SELECT $1, $2, $3, $4, $5, $6
			 WHERE NOT EXISTS (
				SELECT 1 FROM incidents WHERE related_monitor_id = $2 AND status = $3
			 )
			 RETURNING id`,
			utils.ToPgUUID(inc.OwnerID),
			utils.ToPgUUID(inc.RelatedMonitorID),
			string(StateOngoing),
			inc.Cause,
			inc.ErrorCode,
			utils.ToPgTimestamptz(inc.StartedAt),
		).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			// lost the race: an ongoing incident already exists
			return uuid.Nil, false, nil
		}
	} else {
		err = r.pool.QueryRow(ctx,
			`INSERT INTO incidents (owner_id, status, cause, error_code, started_at)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id`,
			utils.ToPgUUID(inc.OwnerID),
			string(StateOngoing),
			inc.Cause,
			inc.ErrorCode,
			utils.ToPgTimestamptz(inc.StartedAt),
		).Scan(&id)
	}

	if err != nil {
		return uuid.Nil, false, utils.WrapRepoError(op, err, false, r.logger)
	}
	return id, true, nil
}

// Resolve closes the incident if it is still ongoing. Returns false when
// another writer already resolved it.
func (r *Repository) Resolve(ctx context.Context, id uuid.UUID, durationSeconds int64) (bool, error) {
	const op string = "repo.incident.resolve"

	tag, err := r.pool.Exec(ctx,
		`UPDATE incidents
		 SET status = $2, duration_seconds = $3
		 WHERE id = $1 AND status = $4`,
		utils.ToPgUUID(id),
		string(StateResolved),
		durationSeconds,
		string(StateOngoing),
	)
	if err != nil {
		return false, utils.WrapRepoError(op, err, false, r.logger)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Incident, error) {
	const op string = "repo.incident.get_by_id"

	row := r.pool.QueryRow(ctx,
		`SELECT `+incidentColumns+` FROM incidents WHERE id = $1`,
		utils.ToPgUUID(id),
	)

	inc, err := scanIncident(row)
	if err != nil {
		return Incident{}, utils.WrapRepoError(op, err, true, r.logger)
	}
	return inc, nil
}

func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int32) ([]Incident, error) {
	const op string = "repo.incident.list_by_owner"

	rows, err := r.pool.Query(ctx,
		`SELECT `+incidentColumns+` FROM incidents
		 WHERE owner_id = $1
		 ORDER BY started_at DESC
		 LIMIT $2 OFFSET $3`,
		utils.ToPgUUID(ownerID), limit, offset,
	)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	var incidents []Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		incidents = append(incidents, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	return incidents, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	const op string = "repo.incident.delete"

	tag, err := r.pool.Exec(ctx,
		`DELETE FROM incidents WHERE id = $1`,
		utils.ToPgUUID(id),
	)
	if err != nil {
		return false, utils.WrapRepoError(op, err, false, r.logger)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) AppendTimeline(ctx context.Context, e TimelineEntry) error {
	const op string = "repo.incident.append_timeline"

	_, err := r.pool.Exec(ctx,
		`INSERT INTO incident_timeline (incident_id, type, message, time)
		 VALUES ($1, $2, $3, $4)`,
		utils.ToPgUUID(e.IncidentID),
		string(e.Type),
		e.Message,
		utils.ToPgTimestamptz(e.Time),
	)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	return nil
}

func (r *Repository) ListTimeline(ctx context.Context, incidentID uuid.UUID) ([]TimelineEntry, error) {
	const op string = "repo.incident.list_timeline"

	rows, err := r.pool.Query(ctx,
		`SELECT id, incident_id, type, message, time
		 FROM incident_timeline
		 WHERE incident_id = $1
		 ORDER BY time ASC`,
		utils.ToPgUUID(incidentID),
	)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	var entries []TimelineEntry
	for rows.Next() {
		var (
			e         TimelineEntry
			entryType string
		)
		if err := rows.Scan(&e.ID, &e.IncidentID, &entryType, &e.Message, &e.Time); err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		e.Type = EntryType(entryType)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncident(row rowScanner) (Incident, error) {
	var (
		inc     Incident
		related pgtype.UUID
		state   string
	)

	err := row.Scan(
		&inc.ID, &inc.OwnerID, &related, &state, &inc.Cause,
		&inc.ErrorCode, &inc.StartedAt, &inc.DurationSeconds, &inc.CreatedAt,
	)
	if err != nil {
		return Incident{}, err
	}

	inc.Status = State(state)
	inc.RelatedMonitorID = utils.FromPgUUID(related)
	return inc, nil
}
