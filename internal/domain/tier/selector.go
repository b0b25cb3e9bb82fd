package tier

// Policy is the slice of clinic configuration the selector needs. Kept as a
// standalone struct so the selector has no dependency on the policy store.
type Policy struct {
	DefaultTier               Tier
	AllowPatientChoice        bool
	BandwidthDetectionEnabled bool
	AllowFallbackToWebRTC     bool
	MinBandwidthMbpsForZoom   float64
}

// Input carries everything Select needs. PatientPreference and Bandwidth are
// optional; nil means "not supplied".
type Input struct {
	Policy            Policy
	Entitled          bool
	PatientPreference *Tier
	Bandwidth         *Recommendation
}

// Recommendation is the output of the bandwidth prober, fed into Select.
type Recommendation struct {
	Tier       Tier
	Confidence float64
}

// Select chooses the tier for a new session. It is pure and deterministic:
// no storage or network access. Rules are evaluated in order; the first
// match wins.
func Select(in Input) Decision {
	// Rule 1: a clinic defaulting to the managed platform without the
	// entitlement to use it is forced onto webrtc. This outranks patient
	// choice: an unentitled clinic cannot reach zoom at all.
	if in.Policy.DefaultTier == TierZoom && !in.Entitled {
		return Decision{
			Tier:          TierWebRTC,
			Reason:        ReasonEntitlementDenied,
			AuditRequired: true,
		}
	}

	// Rule 2: patient preference, when the clinic allows it. A zoom
	// preference still requires entitlement.
	if in.Policy.AllowPatientChoice && in.PatientPreference != nil {
		pref := *in.PatientPreference
		if pref.Valid() && (pref != TierZoom || in.Entitled) {
			return Decision{Tier: pref, Reason: ReasonPatientOverride}
		}
	}

	// Rule 3: bandwidth says the link cannot carry the managed platform.
	if in.Policy.BandwidthDetectionEnabled && in.Bandwidth != nil &&
		in.Bandwidth.Tier == TierWebRTC && in.Policy.DefaultTier == TierZoom {
		conf := in.Bandwidth.Confidence
		if in.Policy.AllowFallbackToWebRTC {
			return Decision{
				Tier:       TierWebRTC,
				Reason:     ReasonBandwidthRecommendation,
				Confidence: &conf,
			}
		}
		return Decision{
			Tier:          TierZoom,
			Reason:        ReasonClinicDefault,
			Confidence:    &conf,
			LowConfidence: true,
		}
	}

	// Rule 4: clinic default.
	return Decision{Tier: in.Policy.DefaultTier, Reason: ReasonClinicDefault}
}
