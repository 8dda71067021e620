package usecase

import (
	"context"
	"errors"
	"time"

	"tierguard/internal/domain"
)

// IdentityQuery serves the read-only surface. All reads go through
// ResolveIdentity, so expired records uniformly present as the
// Unverified default without any store write.
type IdentityQuery struct {
	Identities IdentityRepository
	Limits     LimitConfigRepository
	Clock      Clock
}

func (q *IdentityQuery) GetAddressIdentity(ctx context.Context, address domain.Address) (domain.AddressIdentity, error) {
	identity, _, err := ResolveIdentity(ctx, q.Identities, address, q.nowUnix())
	return identity, err
}

func (q *IdentityQuery) GetEffectiveLimit(ctx context.Context, address domain.Address) (int64, error) {
	identity, _, err := ResolveIdentity(ctx, q.Identities, address, q.nowUnix())
	if err != nil {
		return 0, err
	}
	limits, err := q.Limits.GetTierLimits(ctx)
	if err != nil {
		return 0, err
	}
	risk, err := q.Limits.GetRiskThresholds(ctx)
	if err != nil {
		return 0, err
	}
	return domain.EffectiveLimit(identity.Tier, identity.RiskScore, limits, risk), nil
}

// IsClaimValid reports whether the address holds an unexpired accepted
// claim.
func (q *IdentityQuery) IsClaimValid(ctx context.Context, address domain.Address) (bool, error) {
	record, err := q.Identities.Get(ctx, address)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return !record.Expired(q.nowUnix()), nil
}

func (q *IdentityQuery) nowUnix() uint64 {
	if q.Clock != nil {
		return uint64(q.Clock.Now().Unix())
	}
	return uint64(time.Now().Unix())
}
