package analytics

import (
	"context"
	"time"

	"github.com/webqx/telehealth/internal/domain/tier"
)

type Repository interface {
	// AddSession folds one completed session into the clinic's bucket for
	// day, updating the running quality average.
	AddSession(ctx context.Context, clinicID string, day time.Time, t tier.Tier, durationMinutes int, qualityScore float64) error
	// AddFailure increments the failure counter for the tier's bucket.
	AddFailure(ctx context.Context, clinicID string, day time.Time, t tier.Tier) error
	ListSince(ctx context.Context, clinicID string, since time.Time) ([]*UsageBucket, error)
}
