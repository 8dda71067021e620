package crypto

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"tierguard/internal/domain"
)

func testClaim() domain.IdentityClaim {
	var addr, issuer domain.Address
	for i := range addr {
		addr[i] = byte(i)
		issuer[i] = byte(0xff - i)
	}
	return domain.IdentityClaim{
		Address:   addr,
		Tier:      domain.TierVerified,
		RiskScore: 42,
		Expiry:    1_700_000_000,
		Issuer:    issuer,
	}
}

func TestEncodeClaim_Deterministic(t *testing.T) {
	svc := NewService()
	claim := testClaim()

	first := svc.EncodeClaim(claim)
	second := svc.EncodeClaim(claim)
	if len(first) != EncodedClaimSize {
		t.Fatalf("encoded length = %d, want %d", len(first), EncodedClaimSize)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("identical claims must encode identically")
	}
}

func TestEncodeClaim_FieldChangesChangeEncoding(t *testing.T) {
	svc := NewService()
	base := svc.EncodeClaim(testClaim())

	mutations := map[string]domain.IdentityClaim{}

	c := testClaim()
	c.Address[0] ^= 0x01
	mutations["address"] = c

	c = testClaim()
	c.Tier = domain.TierPremium
	mutations["tier"] = c

	c = testClaim()
	c.RiskScore = 43
	mutations["risk_score"] = c

	c = testClaim()
	c.Expiry++
	mutations["expiry"] = c

	c = testClaim()
	c.Issuer[31] ^= 0x01
	mutations["issuer"] = c

	for name, mutated := range mutations {
		if bytes.Equal(base, svc.EncodeClaim(mutated)) {
			t.Fatalf("changing %s did not change the encoding", name)
		}
	}
}

func TestVerifyClaimSignature(t *testing.T) {
	svc := NewService()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	claim := testClaim()
	copy(claim.Issuer[:], pub)
	encoded := svc.EncodeClaim(claim)
	sig := ed25519.Sign(priv, encoded)

	if err := svc.VerifyClaimSignature(encoded, sig, pub); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}

	tampered := svc.EncodeClaim(func() domain.IdentityClaim {
		c := claim
		c.RiskScore++
		return c
	}())
	if err := svc.VerifyClaimSignature(tampered, sig, pub); err == nil {
		t.Fatal("signature over different encoding must fail")
	}

	if err := svc.VerifyClaimSignature(encoded, sig[:63], pub); err == nil {
		t.Fatal("short signature must be rejected")
	}
	if err := svc.VerifyClaimSignature(encoded, sig, pub[:31]); err == nil {
		t.Fatal("short public key must be rejected")
	}
	if err := svc.VerifyClaimSignature(encoded[:EncodedClaimSize-1], sig, pub); err == nil {
		t.Fatal("truncated encoding must be rejected")
	}
}
