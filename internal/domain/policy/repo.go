package policy

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("clinic policy not found")

type Repository interface {
	Get(ctx context.Context, clinicID string) (*ClinicPolicy, error)
	// GetForUpdate locks the clinic's row for the duration of the enclosing
	// transaction, serializing concurrent updates per clinic.
	GetForUpdate(ctx context.Context, clinicID string) (*ClinicPolicy, error)
	Upsert(ctx context.Context, p *ClinicPolicy) error
}
