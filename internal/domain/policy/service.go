package policy

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/webqx/telehealth/internal/domain/audit"
	"github.com/webqx/telehealth/internal/domain/entitlement"
	"github.com/webqx/telehealth/internal/domain/tier"
	"github.com/webqx/telehealth/internal/platform/db"
)

// ErrPolicyViolation marks an update that would break the entitlement
// invariant: defaulting to zoom without a managed-video subscription.
var ErrPolicyViolation = errors.New("default tier requires managed-video entitlement")

// TxRunner executes fn inside one unit of work. Production wiring uses
// db.WithTx; tests substitute a pass-through.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	repo         Repository
	entitlements *entitlement.Service
	recorder     audit.Recorder
	tx           TxRunner
	logger       zerolog.Logger
}

func NewService(pool *pgxpool.Pool, repo Repository, entitlements *entitlement.Service, recorder audit.Recorder, logger zerolog.Logger) *Service {
	s := &Service{
		repo:         repo,
		entitlements: entitlements,
		recorder:     recorder,
		logger:       logger.With().Str("component", "policy_service").Logger(),
	}
	if pool != nil {
		s.tx = func(ctx context.Context, fn func(ctx context.Context) error) error {
			return db.WithTx(ctx, pool, fn)
		}
	} else {
		s.tx = func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		}
	}
	return s
}

// Get returns the clinic's policy, materializing defaults on first read.
func (s *Service) Get(ctx context.Context, clinicID string) (*ClinicPolicy, error) {
	p, err := s.repo.Get(ctx, clinicID)
	if errors.Is(err, ErrNotFound) {
		p = Default(clinicID)
		if err := s.repo.Upsert(ctx, p); err != nil {
			return nil, fmt.Errorf("materialize default policy: %w", err)
		}
		return p, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateRequest carries the mutable policy fields. Nil pointers leave the
// current value untouched.
type UpdateRequest struct {
	DefaultTier               *tier.Tier `json:"default_tier"`
	AllowPatientChoice        *bool      `json:"allow_patient_choice"`
	BandwidthDetectionEnabled *bool      `json:"bandwidth_detection_enabled"`
	AllowFallbackToWebRTC     *bool      `json:"allow_fallback_to_webrtc"`
	MinBandwidthMbpsForZoom   *float64   `json:"min_bandwidth_mbps_for_zoom"`
	RecordingEnabled          *bool      `json:"recording_enabled"`
	HighContrastMode          *bool      `json:"high_contrast_mode"`
	Locale                    *string    `json:"locale"`
}

func (req UpdateRequest) apply(p *ClinicPolicy) {
	if req.DefaultTier != nil {
		p.DefaultTier = *req.DefaultTier
	}
	if req.AllowPatientChoice != nil {
		p.AllowPatientChoice = *req.AllowPatientChoice
	}
	if req.BandwidthDetectionEnabled != nil {
		p.BandwidthDetectionEnabled = *req.BandwidthDetectionEnabled
	}
	if req.AllowFallbackToWebRTC != nil {
		p.AllowFallbackToWebRTC = *req.AllowFallbackToWebRTC
	}
	if req.MinBandwidthMbpsForZoom != nil {
		p.MinBandwidthMbpsForZoom = *req.MinBandwidthMbpsForZoom
	}
	if req.RecordingEnabled != nil {
		p.RecordingEnabled = *req.RecordingEnabled
	}
	if req.HighContrastMode != nil {
		p.HighContrastMode = *req.HighContrastMode
	}
	if req.Locale != nil {
		p.Locale = *req.Locale
	}
}

// Update applies the request inside one transaction: row lock, field
// validation, entitlement invariant, write, audit. If the audit insert
// fails the whole update rolls back.
func (s *Service) Update(ctx context.Context, clinicID, actorID, sourceIP string, req UpdateRequest) (*ClinicPolicy, error) {
	var updated *ClinicPolicy

	err := s.tx(ctx, func(ctx context.Context) error {
		cur, err := s.repo.GetForUpdate(ctx, clinicID)
		if errors.Is(err, ErrNotFound) {
			cur = Default(clinicID)
			// Materialize so the row lock holds for the rest of the tx.
			if err := s.repo.Upsert(ctx, cur); err != nil {
				return err
			}
			if cur, err = s.repo.GetForUpdate(ctx, clinicID); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		old := *cur
		next := *cur
		req.apply(&next)
		next.LastModifiedBy = actorID

		if err := next.Validate(); err != nil {
			return err
		}
		if next.DefaultTier == tier.TierZoom {
			entitled, err := s.entitlements.Resolve(ctx, clinicID)
			if err != nil {
				return err
			}
			if !entitled {
				return ErrPolicyViolation
			}
		}

		if err := s.repo.Upsert(ctx, &next); err != nil {
			return err
		}

		if err := s.recorder.Record(ctx, &audit.Entry{
			ClinicID:  clinicID,
			EventType: audit.EventPolicyUpdate,
			ActorID:   actorID,
			OldValue:  audit.Snapshot(old),
			NewValue:  audit.Snapshot(next),
			Reason:    "clinic settings updated",
			SourceIP:  sourceIP,
		}); err != nil {
			return err
		}

		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("clinic_id", clinicID).
		Str("actor_id", actorID).
		Str("default_tier", string(updated.DefaultTier)).
		Msg("clinic policy updated")
	return updated, nil
}
