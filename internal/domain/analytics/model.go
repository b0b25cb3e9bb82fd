// Package analytics aggregates per-clinic telehealth usage into daily
// buckets and derives a rule-based tier recommendation from them.
package analytics

import (
	"time"

	"github.com/webqx/telehealth/internal/domain/tier"
)

// UsageBucket is one clinic's usage for one calendar day.
type UsageBucket struct {
	ClinicID string    `json:"clinic_id"`
	Date     time.Time `json:"date"`

	WebRTCSessionCount int `json:"webrtc_sessions_count"`
	ZoomSessionCount   int `json:"zoom_sessions_count"`

	WebRTCTotalDurationMinutes int `json:"webrtc_total_duration_minutes"`
	ZoomTotalDurationMinutes   int `json:"zoom_total_duration_minutes"`

	// Quality on a 0-10 scale, averaged over the day's sessions.
	WebRTCAvgQualityScore float64 `json:"webrtc_average_quality_score"`
	ZoomAvgQualityScore   float64 `json:"zoom_average_quality_score"`

	WebRTCConnectionFailures int `json:"webrtc_connection_failures"`
	ZoomConnectionFailures   int `json:"zoom_connection_failures"`

	CreatedAt time.Time `json:"created_at"`
}

func (b *UsageBucket) TotalSessions() int {
	return b.WebRTCSessionCount + b.ZoomSessionCount
}

func (b *UsageBucket) WebRTCUsagePercentage() float64 {
	total := b.TotalSessions()
	if total == 0 {
		return 0
	}
	return float64(b.WebRTCSessionCount) / float64(total) * 100
}

// Recommendation is a usage-pattern-driven tier suggestion, distinct from
// the per-session bandwidth recommendation.
type Recommendation struct {
	RecommendedTier tier.Tier `json:"recommended_tier"`
	Reason          string    `json:"reason"`
	Confidence      float64   `json:"confidence"`
}

// Recommend applies the rule ladder to an aggregate bucket. Rules fire in
// order; the first match wins.
func Recommend(agg *UsageBucket) Recommendation {
	if agg.TotalSessions() < 10 {
		return Recommendation{
			RecommendedTier: tier.TierWebRTC,
			Reason:          "Low session volume - WebRTC is cost-effective",
			Confidence:      0.7,
		}
	}

	webrtcSessions := agg.WebRTCSessionCount
	if webrtcSessions < 1 {
		webrtcSessions = 1
	}
	if float64(agg.WebRTCConnectionFailures)/float64(webrtcSessions) > 0.2 {
		return Recommendation{
			RecommendedTier: tier.TierZoom,
			Reason:          "High WebRTC failure rate - managed platform may be more reliable",
			Confidence:      0.8,
		}
	}

	if agg.WebRTCUsagePercentage() > 80 && agg.WebRTCAvgQualityScore > 7 {
		return Recommendation{
			RecommendedTier: tier.TierWebRTC,
			Reason:          "High WebRTC usage with good quality - continue with included tier",
			Confidence:      0.9,
		}
	}

	return Recommendation{
		RecommendedTier: tier.TierWebRTC,
		Reason:          "Default recommendation - start with included tier",
		Confidence:      0.6,
	}
}
