// Package tier decides which video transport a telehealth session runs on:
// direct peer-to-peer ("webrtc") or the managed third-party platform
// ("zoom"). The selector is a pure function over clinic policy, entitlement
// and an optional bandwidth measurement, so every rule is table-testable.
package tier

// Tier is the video transport choice for a session.
type Tier string

const (
	TierWebRTC Tier = "webrtc"
	TierZoom   Tier = "zoom"
	// TierJitsi is never chosen by policy; it is only reachable through an
	// explicit patient preference when the clinic allows patient choice.
	TierJitsi Tier = "jitsi"
)

// Valid reports whether t is a known tier value.
func (t Tier) Valid() bool {
	switch t {
	case TierWebRTC, TierZoom, TierJitsi:
		return true
	}
	return false
}

// Reason explains why a tier was chosen for a session.
type Reason string

const (
	ReasonClinicDefault           Reason = "clinic-default"
	ReasonPatientOverride         Reason = "patient-override"
	ReasonBandwidthRecommendation Reason = "bandwidth-recommendation"
	ReasonEntitlementDenied       Reason = "entitlement-denied-fallback"
	ReasonPriorTierFailure        Reason = "prior-tier-failure-fallback"
)

// Decision is the outcome of tier selection for one session-start attempt.
type Decision struct {
	Tier   Tier   `json:"tier"`
	Reason Reason `json:"reason"`
	// Confidence is set only for bandwidth-driven decisions.
	Confidence *float64 `json:"confidence,omitempty"`
	// LowConfidence flags a zoom decision kept despite a webrtc bandwidth
	// recommendation because the clinic disabled fallback.
	LowConfidence bool `json:"low_confidence,omitempty"`
	// AuditRequired tells the caller this decision must be recorded in the
	// compliance audit log (policy/entitlement mismatch).
	AuditRequired bool `json:"-"`
}
