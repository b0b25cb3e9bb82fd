package policy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

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

const policyCols = `clinic_id, default_tier, allow_patient_choice,
	bandwidth_detection_enabled, allow_fallback_to_webrtc,
	min_bandwidth_mbps_for_zoom, recording_enabled, high_contrast_mode,
	locale, last_modified_by, created_at, updated_at`

func scanPolicy(row pgx.Row) (*ClinicPolicy, error) {
	var p ClinicPolicy
	err := row.Scan(
		&p.ClinicID, &p.DefaultTier, &p.AllowPatientChoice,
		&p.BandwidthDetectionEnabled, &p.AllowFallbackToWebRTC,
		&p.MinBandwidthMbpsForZoom, &p.RecordingEnabled, &p.HighContrastMode,
		&p.Locale, &p.LastModifiedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *RepoPG) Get(ctx context.Context, clinicID string) (*ClinicPolicy, error) {
	return scanPolicy(r.conn(ctx).QueryRow(ctx,
		`SELECT `+policyCols+` FROM clinic_policy WHERE clinic_id = $1`, clinicID))
}

func (r *RepoPG) GetForUpdate(ctx context.Context, clinicID string) (*ClinicPolicy, error) {
	if db.TxFromContext(ctx) == nil {
		return nil, fmt.Errorf("GetForUpdate requires a transaction")
	}
	return scanPolicy(r.conn(ctx).QueryRow(ctx,
		`SELECT `+policyCols+` FROM clinic_policy WHERE clinic_id = $1 FOR UPDATE`, clinicID))
}

func (r *RepoPG) Upsert(ctx context.Context, p *ClinicPolicy) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO clinic_policy (`+policyCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (clinic_id) DO UPDATE SET
			default_tier = EXCLUDED.default_tier,
			allow_patient_choice = EXCLUDED.allow_patient_choice,
			bandwidth_detection_enabled = EXCLUDED.bandwidth_detection_enabled,
			allow_fallback_to_webrtc = EXCLUDED.allow_fallback_to_webrtc,
			min_bandwidth_mbps_for_zoom = EXCLUDED.min_bandwidth_mbps_for_zoom,
			recording_enabled = EXCLUDED.recording_enabled,
			high_contrast_mode = EXCLUDED.high_contrast_mode,
			locale = EXCLUDED.locale,
			last_modified_by = EXCLUDED.last_modified_by,
			updated_at = EXCLUDED.updated_at`,
		p.ClinicID, p.DefaultTier, p.AllowPatientChoice,
		p.BandwidthDetectionEnabled, p.AllowFallbackToWebRTC,
		p.MinBandwidthMbpsForZoom, p.RecordingEnabled, p.HighContrastMode,
		p.Locale, p.LastModifiedBy, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert clinic policy: %w", err)
	}
	return nil
}
