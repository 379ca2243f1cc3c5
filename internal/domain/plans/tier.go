package plans

import "strings"

// Tier constants (single source of truth)
const (
	TierNone    = "none"
	TierBasic   = "basic"
	TierPremium = "premium"
	TierElite   = "elite"
)

// PlanTier returns the effective tier for a plan.
// Priority:
// 1. Explicit Tier stored in DB
// 2. Fallback inference by price (legacy safety net)
func PlanTier(p *Plan) string {
	if p == nil {
		return TierNone
	}

	tier := strings.ToLower(strings.TrimSpace(p.Tier))
	switch tier {
	case TierBasic, TierPremium, TierElite:
		return tier
	}

	return inferTierFromPrice(p.PriceCents)
}

// inferTierFromPrice exists ONLY as a backward-compatibility fallback
// for plans synced before the tier column existed.
func inferTierFromPrice(priceCents int64) string {
	switch {
	case priceCents >= 7900:
		return TierElite
	case priceCents >= 4900:
		return TierPremium
	default:
		return TierBasic
	}
}
