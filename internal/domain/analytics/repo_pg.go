package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/webqx/telehealth/internal/domain/tier"
	"github.com/webqx/telehealth/internal/platform/db"
)

type RepoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) *RepoPG {
	return &RepoPG{pool: pool}
}

func (r *RepoPG) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// day truncates to a UTC calendar date for the bucket key.
func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddSession upserts the day's bucket and folds the session into the
// per-tier counters and running quality average. Jitsi sessions count
// toward the webrtc columns; both are the non-managed tier.
func (r *RepoPG) AddSession(ctx context.Context, clinicID string, dayAt time.Time, t tier.Tier, durationMinutes int, qualityScore float64) error {
	var q string
	if t == tier.TierZoom {
		q = `
		INSERT INTO usage_analytics (clinic_id, date, zoom_sessions_count, zoom_total_duration_minutes, zoom_average_quality_score)
		VALUES ($1, $2, 1, $3, $4)
		ON CONFLICT (clinic_id, date) DO UPDATE SET
			zoom_sessions_count = usage_analytics.zoom_sessions_count + 1,
			zoom_total_duration_minutes = usage_analytics.zoom_total_duration_minutes + EXCLUDED.zoom_total_duration_minutes,
			zoom_average_quality_score =
				(usage_analytics.zoom_average_quality_score * usage_analytics.zoom_sessions_count + $4)
				/ (usage_analytics.zoom_sessions_count + 1)`
	} else {
		q = `
		INSERT INTO usage_analytics (clinic_id, date, webrtc_sessions_count, webrtc_total_duration_minutes, webrtc_average_quality_score)
		VALUES ($1, $2, 1, $3, $4)
		ON CONFLICT (clinic_id, date) DO UPDATE SET
			webrtc_sessions_count = usage_analytics.webrtc_sessions_count + 1,
			webrtc_total_duration_minutes = usage_analytics.webrtc_total_duration_minutes + EXCLUDED.webrtc_total_duration_minutes,
			webrtc_average_quality_score =
				(usage_analytics.webrtc_average_quality_score * usage_analytics.webrtc_sessions_count + $4)
				/ (usage_analytics.webrtc_sessions_count + 1)`
	}

	if _, err := r.conn(ctx).Exec(ctx, q, clinicID, day(dayAt), durationMinutes, qualityScore); err != nil {
		return fmt.Errorf("add session to usage bucket: %w", err)
	}
	return nil
}

func (r *RepoPG) AddFailure(ctx context.Context, clinicID string, dayAt time.Time, t tier.Tier) error {
	var q string
	if t == tier.TierZoom {
		q = `
		INSERT INTO usage_analytics (clinic_id, date, zoom_connection_failures)
		VALUES ($1, $2, 1)
		ON CONFLICT (clinic_id, date) DO UPDATE SET
			zoom_connection_failures = usage_analytics.zoom_connection_failures + 1`
	} else {
		q = `
		INSERT INTO usage_analytics (clinic_id, date, webrtc_connection_failures)
		VALUES ($1, $2, 1)
		ON CONFLICT (clinic_id, date) DO UPDATE SET
			webrtc_connection_failures = usage_analytics.webrtc_connection_failures + 1`
	}

	if _, err := r.conn(ctx).Exec(ctx, q, clinicID, day(dayAt)); err != nil {
		return fmt.Errorf("add failure to usage bucket: %w", err)
	}
	return nil
}

func (r *RepoPG) ListSince(ctx context.Context, clinicID string, since time.Time) ([]*UsageBucket, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT clinic_id, date,
			webrtc_sessions_count, zoom_sessions_count,
			webrtc_total_duration_minutes, zoom_total_duration_minutes,
			webrtc_average_quality_score, zoom_average_quality_score,
			webrtc_connection_failures, zoom_connection_failures,
			created_at
		FROM usage_analytics
		WHERE clinic_id = $1 AND date >= $2
		ORDER BY date DESC`,
		clinicID, day(since),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var buckets []*UsageBucket
	for rows.Next() {
		var b UsageBucket
		if err := rows.Scan(
			&b.ClinicID, &b.Date,
			&b.WebRTCSessionCount, &b.ZoomSessionCount,
			&b.WebRTCTotalDurationMinutes, &b.ZoomTotalDurationMinutes,
			&b.WebRTCAvgQualityScore, &b.ZoomAvgQualityScore,
			&b.WebRTCConnectionFailures, &b.ZoomConnectionFailures,
			&b.CreatedAt,
		); err != nil {
			return nil, err
		}
		buckets = append(buckets, &b)
	}
	return buckets, rows.Err()
}
