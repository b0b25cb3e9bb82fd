package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListFilter narrows session listings.
type ListFilter struct {
	Status Status
	UserID string
}

type Repository interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	// Update writes the session only if the stored version matches
	// s.Version, then bumps it. A stale writer gets ErrVersionConflict.
	Update(ctx context.Context, s *Session) error
	List(ctx context.Context, clinicID string, f ListFilter, limit, offset int) ([]*Session, int, error)
	ListUpcoming(ctx context.Context, userID string, now time.Time, limit int) ([]*Session, error)
	// ListMissed returns scheduled sessions whose slot has fully passed.
	ListMissed(ctx context.Context, now time.Time) ([]*Session, error)

	CreateParticipant(ctx context.Context, p *Participant) error
	GetParticipant(ctx context.Context, sessionID uuid.UUID, userID string) (*Participant, error)
	UpdateParticipant(ctx context.Context, p *Participant) error
	ListParticipants(ctx context.Context, sessionID uuid.UUID) ([]*Participant, error)
}
