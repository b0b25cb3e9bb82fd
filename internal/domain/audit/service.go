package audit

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Recorder is consumed by the policy and session services. Record is
// synchronous: the triggering mutation is not complete until it returns nil,
// and callers must abort the mutation when it fails.
type Recorder interface {
	Record(ctx context.Context, e *Entry) error
}

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "audit_service").Logger(),
	}
}

func (s *Service) Record(ctx context.Context, e *Entry) error {
	if err := s.repo.Insert(ctx, e); err != nil {
		s.logger.Error().Err(err).
			Str("clinic_id", e.ClinicID).
			Str("event_type", string(e.EventType)).
			Msg("audit write failed; triggering mutation will be rolled back")
		return fmt.Errorf("record audit entry: %w", err)
	}
	s.logger.Info().
		Str("clinic_id", e.ClinicID).
		Str("event_type", string(e.EventType)).
		Str("actor_id", e.ActorID).
		Msg("audit entry recorded")
	return nil
}

func (s *Service) List(ctx context.Context, clinicID string, days, limit, offset int) ([]*Entry, int, error) {
	return s.repo.ListByClinic(ctx, clinicID, Window{Days: days}, limit, offset)
}
