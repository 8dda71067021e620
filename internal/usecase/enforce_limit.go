package usecase

import (
	"context"
	"time"

	"tierguard/internal/domain"
)

// LimitCheck is the audit-friendly outcome of one enforcement call.
type LimitCheck struct {
	Address   domain.Address
	Tier      domain.IdentityTier
	RiskScore uint32
	Amount    int64
	Limit     int64
	Passed    bool
	Reasons   []string
}

// LimitEnforcer guards fund movement: it resolves the caller's current
// identity, computes the effective limit from a configuration snapshot
// and accepts or rejects the proposed amount. It never writes to the
// identity store; expiry downgrades exist only in the reading.
type LimitEnforcer struct {
	Identities IdentityRepository
	Limits     LimitConfigRepository
	Policy     EnforcementPolicy
	Audit      *AuditEmitter
	Clock      Clock
}

func (g *LimitEnforcer) Check(ctx context.Context, address domain.Address, amount int64) (*LimitCheck, error) {
	now := uint64(g.now().Unix())

	identity, expired, err := ResolveIdentity(ctx, g.Identities, address, now)
	if err != nil {
		return nil, err
	}
	if expired && g.Audit != nil {
		_ = g.Audit.EmitClaimExpiredDetected(ctx, address)
	}

	limits, err := g.Limits.GetTierLimits(ctx)
	if err != nil {
		return nil, err
	}
	risk, err := g.Limits.GetRiskThresholds(ctx)
	if err != nil {
		return nil, err
	}

	limit := domain.EffectiveLimit(identity.Tier, identity.RiskScore, limits, risk)
	check := &LimitCheck{
		Address:   address,
		Tier:      identity.Tier,
		RiskScore: identity.RiskScore,
		Amount:    amount,
		Limit:     limit,
	}

	if amount > limit {
		g.emit(ctx, check)
		return check, &domain.LimitExceededError{Limit: limit, Amount: amount}
	}

	if g.Policy != nil {
		decision, err := g.Policy.Evaluate(ctx, PolicyInput{
			Address:   address.String(),
			Tier:      identity.Tier.String(),
			RiskScore: identity.RiskScore,
			Amount:    amount,
			Limit:     limit,
		})
		if err != nil {
			return nil, err
		}
		if !decision.Allow {
			check.Reasons = decision.Reasons
			g.emit(ctx, check)
			return check, domain.ErrPolicyDenied
		}
	}

	check.Passed = true
	g.emit(ctx, check)
	return check, nil
}

func (g *LimitEnforcer) emit(ctx context.Context, check *LimitCheck) {
	if g.Audit == nil {
		return
	}
	_ = g.Audit.EmitLimitCheck(ctx, check.Address, check.Passed, check.Limit, check.Amount)
}

func (g *LimitEnforcer) now() time.Time {
	if g.Clock != nil {
		return g.Clock.Now()
	}
	return time.Now()
}
