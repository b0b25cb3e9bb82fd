package analytics

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/webqx/telehealth/internal/domain/tier"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "analytics_service").Logger(),
		now:    time.Now,
	}
}

// RecordSessionEnd folds a finished session into today's bucket. Analytics
// are advisory; a write failure is logged but never fails the session
// transition that triggered it.
func (s *Service) RecordSessionEnd(ctx context.Context, clinicID string, t tier.Tier, duration time.Duration, qualityScore float64) {
	minutes := int(duration.Minutes())
	if minutes < 0 {
		minutes = 0
	}
	if err := s.repo.AddSession(ctx, clinicID, s.now().UTC(), t, minutes, qualityScore); err != nil {
		s.logger.Warn().Err(err).Str("clinic_id", clinicID).Msg("failed to record session analytics")
	}
}

// RecordFailure counts a connection failure against the tier's bucket.
func (s *Service) RecordFailure(ctx context.Context, clinicID string, t tier.Tier) {
	if err := s.repo.AddFailure(ctx, clinicID, s.now().UTC(), t); err != nil {
		s.logger.Warn().Err(err).Str("clinic_id", clinicID).Msg("failed to record failure analytics")
	}
}

// Summary is the usage report returned by the analytics endpoint.
type Summary struct {
	Days           int            `json:"days"`
	Buckets        []*UsageBucket `json:"buckets"`
	Totals         UsageBucket    `json:"totals"`
	Recommendation Recommendation `json:"recommendation"`
}

// Summarize aggregates the last N days and attaches a recommendation.
func (s *Service) Summarize(ctx context.Context, clinicID string, days int) (*Summary, error) {
	if days <= 0 {
		days = 30
	}
	since := s.now().UTC().AddDate(0, 0, -days)

	buckets, err := s.repo.ListSince(ctx, clinicID, since)
	if err != nil {
		return nil, err
	}

	totals := UsageBucket{ClinicID: clinicID}
	var webrtcQualitySum, zoomQualitySum float64
	for _, b := range buckets {
		totals.WebRTCSessionCount += b.WebRTCSessionCount
		totals.ZoomSessionCount += b.ZoomSessionCount
		totals.WebRTCTotalDurationMinutes += b.WebRTCTotalDurationMinutes
		totals.ZoomTotalDurationMinutes += b.ZoomTotalDurationMinutes
		totals.WebRTCConnectionFailures += b.WebRTCConnectionFailures
		totals.ZoomConnectionFailures += b.ZoomConnectionFailures
		webrtcQualitySum += b.WebRTCAvgQualityScore * float64(b.WebRTCSessionCount)
		zoomQualitySum += b.ZoomAvgQualityScore * float64(b.ZoomSessionCount)
	}
	if totals.WebRTCSessionCount > 0 {
		totals.WebRTCAvgQualityScore = webrtcQualitySum / float64(totals.WebRTCSessionCount)
	}
	if totals.ZoomSessionCount > 0 {
		totals.ZoomAvgQualityScore = zoomQualitySum / float64(totals.ZoomSessionCount)
	}

	if buckets == nil {
		buckets = []*UsageBucket{}
	}
	return &Summary{
		Days:           days,
		Buckets:        buckets,
		Totals:         totals,
		Recommendation: Recommend(&totals),
	}, nil
}
