package usecase_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"tierguard/internal/domain"
	"tierguard/internal/infra/crypto"
	"tierguard/internal/infra/storemem"
	"tierguard/internal/usecase"
)

type fixedClock struct {
	t time.Time
}

func (c *fixedClock) Now() time.Time { return c.t }

func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }

var testEpoch = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

type testIssuer struct {
	key     domain.Address
	private ed25519.PrivateKey
}

func newTestIssuer(t *testing.T) *testIssuer {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate issuer key: %v", err)
	}
	var key domain.Address
	copy(key[:], pub)
	return &testIssuer{key: key, private: priv}
}

// sign produces a valid envelope for a claim issued by this issuer. The
// claim's Issuer field is overwritten with the signing key.
func (i *testIssuer) sign(claim domain.IdentityClaim) domain.SignedClaimEnvelope {
	claim.Issuer = i.key
	encoded := crypto.NewService().EncodeClaim(claim)
	return domain.SignedClaimEnvelope{
		Claim:     claim,
		Signature: ed25519.Sign(i.private, encoded),
	}
}

func testAddress(fill byte) domain.Address {
	var a domain.Address
	for idx := range a {
		a[idx] = fill
	}
	return a
}

type claimFixture struct {
	store  *storemem.Store
	clock  *fixedClock
	issuer *testIssuer
	uc     *usecase.ProcessClaim
}

func newClaimFixture(t *testing.T) *claimFixture {
	t.Helper()
	store := storemem.New()
	clock := &fixedClock{t: testEpoch}
	issuer := newTestIssuer(t)
	if err := store.SetAuthorized(context.Background(), issuer.key, true, uint64(testEpoch.Unix())); err != nil {
		t.Fatalf("authorize issuer: %v", err)
	}
	return &claimFixture{
		store:  store,
		clock:  clock,
		issuer: issuer,
		uc: &usecase.ProcessClaim{
			Identities: store,
			Issuers:    store,
			Crypto:     crypto.NewService(),
			Audit:      usecase.NewAuditEmitter(store, clock),
			Clock:      clock,
		},
	}
}

func (f *claimFixture) claim(address domain.Address, tier domain.IdentityTier, risk uint32, ttl time.Duration) domain.IdentityClaim {
	return domain.IdentityClaim{
		Address:   address,
		Tier:      tier,
		RiskScore: risk,
		Expiry:    uint64(f.clock.t.Add(ttl).Unix()),
	}
}

func lastEvent(t *testing.T, store *storemem.Store) domain.AuditEvent {
	t.Helper()
	events, err := store.ListRecent(context.Background(), 1)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) == 0 {
		t.Fatal("expected at least one audit event")
	}
	return events[len(events)-1]
}

func eventCount(t *testing.T, store *storemem.Store) int {
	t.Helper()
	events, err := store.ListRecent(context.Background(), 0)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	return len(events)
}
