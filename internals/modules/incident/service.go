package incident

import (
	"context"
	"time"

	"github.com/milankatira/uptime-sub000/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service covers the human-reported incident path. Manual incidents share
// the Incident entity with the engine but bypass the aggregator; when a
// related monitor is supplied they still respect the at-most-one-ongoing
// invariant through the same conditional create.
type Service struct {
	repo   *Repository
	logger *zerolog.Logger
	now    func() time.Time
}

func NewService(repo *Repository, logger *zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

type CreateManualCmd struct {
	OwnerID          uuid.UUID
	RelatedMonitorID uuid.UUID // optional
	Cause            string
	ErrorCode        string
}

func (s *Service) CreateManual(ctx context.Context, cmd CreateManualCmd) (uuid.UUID, error) {
	const op string = "service.incident.create_manual"

	if cmd.Cause == "" {
		return uuid.Nil, apperror.New(apperror.InvalidInput, op, nil).
			WithMessage("cause is required")
	}

	now := s.now()
	id, created, err := s.repo.Create(ctx, Incident{
		OwnerID:          cmd.OwnerID,
		RelatedMonitorID: cmd.RelatedMonitorID,
		Status:           StateOngoing,
		Cause:            cmd.Cause,
		ErrorCode:        cmd.ErrorCode,
		StartedAt:        now,
	})
	if err != nil {
		return uuid.Nil, err
	}
	if !created {
		return uuid.Nil, apperror.New(apperror.Conflict, op, nil).
			WithMessage("monitor already has an ongoing incident")
	}

	if err := s.repo.AppendTimeline(ctx, TimelineEntry{
		IncidentID: id,
		Type:       EntryStart,
		Message:    cmd.Cause,
		Time:       now,
	}); err != nil {
		s.logger.Error().Err(err).
			Str("incident_id", id.String()).
			Msg("failed to append start timeline entry")
	}

	return id, nil
}

func (s *Service) ResolveManual(ctx context.Context, ownerID, incidentID uuid.UUID) error {
	const op string = "service.incident.resolve_manual"

	inc, err := s.ownedIncident(ctx, ownerID, incidentID, op)
	if err != nil {
		return err
	}
	if inc.Status == StateResolved {
		return apperror.New(apperror.Conflict, op, nil).
			WithMessage("incident already resolved")
	}

	now := s.now()
	duration := int64(now.Sub(inc.StartedAt) / time.Second)

	resolved, err := s.repo.Resolve(ctx, incidentID, duration)
	if err != nil {
		return err
	}
	if !resolved {
		return apperror.New(apperror.Conflict, op, nil).
			WithMessage("incident already resolved")
	}

	if err := s.repo.AppendTimeline(ctx, TimelineEntry{
		IncidentID: incidentID,
		Type:       EntryResolve,
		Message:    "resolved manually",
		Time:       now,
	}); err != nil {
		s.logger.Error().Err(err).
			Str("incident_id", incidentID.String()).
			Msg("failed to append resolve timeline entry")
	}

	return nil
}

func (s *Service) AddComment(ctx context.Context, ownerID, incidentID uuid.UUID, message string) error {
	const op string = "service.incident.add_comment"

	if message == "" {
		return apperror.New(apperror.InvalidInput, op, nil).
			WithMessage("comment message is required")
	}
	if _, err := s.ownedIncident(ctx, ownerID, incidentID, op); err != nil {
		return err
	}

	return s.repo.AppendTimeline(ctx, TimelineEntry{
		IncidentID: incidentID,
		Type:       EntryComment,
		Message:    message,
		Time:       s.now(),
	})
}

func (s *Service) DeleteManual(ctx context.Context, ownerID, incidentID uuid.UUID) error {
	const op string = "service.incident.delete_manual"

	if _, err := s.ownedIncident(ctx, ownerID, incidentID, op); err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, incidentID)
	if err != nil {
		return err
	}
	if !deleted {
		return apperror.New(apperror.NotFound, op, nil).
			WithMessage("incident not found")
	}
	return nil
}

func (s *Service) GetIncident(ctx context.Context, ownerID, incidentID uuid.UUID) (Incident, error) {
	const op string = "service.incident.get"
	return s.ownedIncident(ctx, ownerID, incidentID, op)
}

func (s *Service) ListIncidents(ctx context.Context, ownerID uuid.UUID, limit, offset int32) ([]Incident, error) {
	return s.repo.ListByOwner(ctx, ownerID, limit, offset)
}

func (s *Service) Timeline(ctx context.Context, ownerID, incidentID uuid.UUID) ([]TimelineEntry, error) {
	const op string = "service.incident.timeline"

	if _, err := s.ownedIncident(ctx, ownerID, incidentID, op); err != nil {
		return nil, err
	}
	return s.repo.ListTimeline(ctx, incidentID)
}

func (s *Service) ownedIncident(ctx context.Context, ownerID, incidentID uuid.UUID, op string) (Incident, error) {
	inc, err := s.repo.GetByID(ctx, incidentID)
	if err != nil {
		return Incident{}, err
	}
	if inc.OwnerID != ownerID {
		return Incident{}, apperror.New(apperror.Forbidden, op, nil).
			WithMessage("incident belongs to another owner")
	}
	return inc, nil
}
