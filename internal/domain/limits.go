package domain

// TierLimits holds one per-transaction amount per identity tier.
// Monotonicity by tier is recommended configuration practice but not an
// engine invariant; the policy below never assumes it.
type TierLimits struct {
	Unverified int64
	Basic      int64
	Verified   int64
	Premium    int64
}

// RiskThresholds defines the risk-adjusted-limit rule: above the
// threshold, the tier limit is scaled by an integer percentage.
type RiskThresholds struct {
	HighRiskThreshold  uint32
	HighRiskMultiplier uint32
}

// DefaultTierLimits are 7-decimal token amounts: 100, 1,000, 10,000 and
// 100,000 tokens.
func DefaultTierLimits() TierLimits {
	return TierLimits{
		Unverified: 100_0000000,
		Basic:      1000_0000000,
		Verified:   10000_0000000,
		Premium:    100000_0000000,
	}
}

func DefaultRiskThresholds() RiskThresholds {
	return RiskThresholds{HighRiskThreshold: 70, HighRiskMultiplier: 50}
}

// Limit returns the configured amount for the tier ordinal.
func (l TierLimits) Limit(tier IdentityTier) int64 {
	switch tier {
	case TierBasic:
		return l.Basic
	case TierVerified:
		return l.Verified
	case TierPremium:
		return l.Premium
	default:
		return l.Unverified
	}
}

func (l TierLimits) Validate() error {
	if l.Unverified < 0 || l.Basic < 0 || l.Verified < 0 || l.Premium < 0 {
		return ErrInvalidLimitConfig
	}
	return nil
}

// Monotonic reports whether limits are non-decreasing by tier. Admin
// tooling warns on violations; the engine does not reject them.
func (l TierLimits) Monotonic() bool {
	return l.Unverified <= l.Basic && l.Basic <= l.Verified && l.Verified <= l.Premium
}

func (r RiskThresholds) Validate() error {
	if r.HighRiskThreshold > MaxRiskScore || r.HighRiskMultiplier > 100 {
		return ErrInvalidLimitConfig
	}
	return nil
}

// EffectiveLimit computes the amount an identity is currently entitled
// to. The result is min(tier limit, risk-adjusted limit); given the
// adjustment rule the minimum always equals the adjusted value, but
// both are computed so the most-restrictive-wins contract survives
// future multiplier rules. Division truncates toward zero.
func EffectiveLimit(tier IdentityTier, riskScore uint32, limits TierLimits, risk RiskThresholds) int64 {
	tierLimit := limits.Limit(tier)
	riskAdjusted := tierLimit
	if riskScore > risk.HighRiskThreshold {
		riskAdjusted = tierLimit * int64(risk.HighRiskMultiplier) / 100
	}
	if riskAdjusted < tierLimit {
		return riskAdjusted
	}
	return tierLimit
}
