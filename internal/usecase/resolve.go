package usecase

import (
	"context"
	"errors"

	"tierguard/internal/domain"
)

// ResolveIdentity is the single accessor through which every consumer
// reads an address's current identity. Absent and expired records both
// resolve to the Unverified default; expired additionally reports true
// so callers can surface a claim_expired_detected event. The store is
// never mutated here.
func ResolveIdentity(ctx context.Context, repo IdentityRepository, address domain.Address, now uint64) (domain.AddressIdentity, bool, error) {
	record, err := repo.Get(ctx, address)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.DefaultIdentity(), false, nil
		}
		return domain.AddressIdentity{}, false, err
	}
	if record.Expired(now) {
		return domain.DefaultIdentity(), true, nil
	}
	return *record, false, nil
}
