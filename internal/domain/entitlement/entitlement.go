// Package entitlement answers whether a subscription level authorizes the
// managed-video tier. Resolution is a pass-through lookup on every call; no
// caching, so a mid-lifecycle subscription change is picked up immediately.
package entitlement

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Subscription tiers recognized by the platform.
const (
	SubscriptionFree       = "free"
	SubscriptionBasic      = "basic"
	SubscriptionPremium    = "premium"
	SubscriptionEnterprise = "enterprise"
)

// CanUseManagedVideo reports whether a subscription tier includes the
// managed-video platform. Unknown tiers get no access.
func CanUseManagedVideo(subscriptionTier string) bool {
	switch subscriptionTier {
	case SubscriptionPremium, SubscriptionEnterprise:
		return true
	}
	return false
}

// SubscriptionSource looks up the subscription tier for a clinic or user.
// Backed by the identity service in production, by the JWT claim in
// development.
type SubscriptionSource interface {
	GetSubscriptionTier(ctx context.Context, subjectID string) (string, error)
}

type Service struct {
	source SubscriptionSource
	logger zerolog.Logger
}

func NewService(source SubscriptionSource, logger zerolog.Logger) *Service {
	return &Service{
		source: source,
		logger: logger.With().Str("component", "entitlement_service").Logger(),
	}
}

// Resolve fetches the subject's current subscription tier and maps it to a
// managed-video entitlement.
func (s *Service) Resolve(ctx context.Context, subjectID string) (bool, error) {
	tier, err := s.source.GetSubscriptionTier(ctx, subjectID)
	if err != nil {
		return false, fmt.Errorf("resolve subscription tier for %s: %w", subjectID, err)
	}
	entitled := CanUseManagedVideo(tier)
	s.logger.Debug().
		Str("subject_id", subjectID).
		Str("subscription_tier", tier).
		Bool("entitled", entitled).
		Msg("resolved managed-video entitlement")
	return entitled, nil
}

// ClaimSource resolves entitlement from the subscription tier already
// present in the caller's token claims. Used when no external identity
// service is wired.
type ClaimSource struct{}

func (ClaimSource) GetSubscriptionTier(ctx context.Context, subjectID string) (string, error) {
	_ = subjectID
	if tier, ok := ctx.Value(claimTierKey).(string); ok && tier != "" {
		return tier, nil
	}
	return SubscriptionFree, nil
}

type ctxKey string

const claimTierKey ctxKey = "subscription_tier"

// WithClaimTier stashes a token-derived subscription tier for ClaimSource.
func WithClaimTier(ctx context.Context, tier string) context.Context {
	return context.WithValue(ctx, claimTierKey, tier)
}
