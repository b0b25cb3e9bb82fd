// Package policy stores per-clinic telehealth configuration and enforces
// the entitlement invariant on updates: a clinic may not default to the
// managed-video tier its subscription does not include.
package policy

import (
	"fmt"
	"time"

	"github.com/webqx/telehealth/internal/domain/tier"
)

// MinBandwidthFloorMbps is the lowest accepted zoom bandwidth floor.
const MinBandwidthFloorMbps = 0.5

// ClinicPolicy is one clinic's telehealth configuration row.
type ClinicPolicy struct {
	ClinicID                  string    `json:"clinic_id"`
	DefaultTier               tier.Tier `json:"default_tier"`
	AllowPatientChoice        bool      `json:"allow_patient_choice"`
	BandwidthDetectionEnabled bool      `json:"bandwidth_detection_enabled"`
	AllowFallbackToWebRTC     bool      `json:"allow_fallback_to_webrtc"`
	MinBandwidthMbpsForZoom   float64   `json:"min_bandwidth_mbps_for_zoom"`
	RecordingEnabled          bool      `json:"recording_enabled"`
	HighContrastMode          bool      `json:"high_contrast_mode"`
	Locale                    string    `json:"locale"`
	LastModifiedBy            string    `json:"last_modified_by,omitempty"`
	CreatedAt                 time.Time `json:"created_at"`
	UpdatedAt                 time.Time `json:"updated_at"`
}

// Default returns the policy a clinic gets before anyone has configured it.
func Default(clinicID string) *ClinicPolicy {
	return &ClinicPolicy{
		ClinicID:                  clinicID,
		DefaultTier:               tier.TierWebRTC,
		AllowPatientChoice:        true,
		BandwidthDetectionEnabled: true,
		AllowFallbackToWebRTC:     true,
		MinBandwidthMbpsForZoom:   2.0,
		Locale:                    "en",
	}
}

// Validate checks field-level constraints. The entitlement invariant is
// checked separately in the service, where the subscription is known.
func (p *ClinicPolicy) Validate() error {
	if p.ClinicID == "" {
		return fmt.Errorf("clinic_id is required")
	}
	if p.DefaultTier != tier.TierWebRTC && p.DefaultTier != tier.TierZoom {
		return fmt.Errorf("default_tier must be %q or %q", tier.TierWebRTC, tier.TierZoom)
	}
	if p.MinBandwidthMbpsForZoom < MinBandwidthFloorMbps {
		return fmt.Errorf("min_bandwidth_mbps_for_zoom must be at least %.1f", MinBandwidthFloorMbps)
	}
	if p.Locale == "" {
		return fmt.Errorf("locale is required")
	}
	return nil
}

// TierPolicy projects the row onto the selector's input shape.
func (p *ClinicPolicy) TierPolicy() tier.Policy {
	return tier.Policy{
		DefaultTier:               p.DefaultTier,
		AllowPatientChoice:        p.AllowPatientChoice,
		BandwidthDetectionEnabled: p.BandwidthDetectionEnabled,
		AllowFallbackToWebRTC:     p.AllowFallbackToWebRTC,
		MinBandwidthMbpsForZoom:   p.MinBandwidthMbpsForZoom,
	}
}
