// Package claimsign is the off-chain side of the claim contract: it
// builds, signs and locally verifies identity claims using the exact
// canonical encoding the engine checks, so claims signed here verify
// on the engine without transformation.
package claimsign

import (
	"crypto/ed25519"
	"errors"

	"tierguard/internal/domain"
	cryptoinfra "tierguard/internal/infra/crypto"
)

// BuildClaim assembles a claim whose issuer field is the public half of
// the signing key.
func BuildClaim(address domain.Address, tier domain.IdentityTier, riskScore uint32, expiry uint64, privateKey ed25519.PrivateKey) (domain.IdentityClaim, error) {
	if !tier.Valid() {
		return domain.IdentityClaim{}, domain.ErrInvalidTier
	}
	if riskScore > domain.MaxRiskScore {
		return domain.IdentityClaim{}, domain.ErrInvalidRiskScore
	}
	if len(privateKey) != ed25519.PrivateKeySize {
		return domain.IdentityClaim{}, errors.New("invalid ed25519 private key")
	}
	var issuer domain.Address
	copy(issuer[:], privateKey.Public().(ed25519.PublicKey))
	return domain.IdentityClaim{
		Address:   address,
		Tier:      tier,
		RiskScore: riskScore,
		Expiry:    expiry,
		Issuer:    issuer,
	}, nil
}

// SignClaim signs the canonical encoding and returns the envelope the
// engine accepts.
func SignClaim(claim domain.IdentityClaim, privateKey ed25519.PrivateKey) (domain.SignedClaimEnvelope, error) {
	if len(privateKey) != ed25519.PrivateKeySize {
		return domain.SignedClaimEnvelope{}, errors.New("invalid ed25519 private key")
	}
	service := cryptoinfra.NewService()
	encoded := service.EncodeClaim(claim)
	sig := ed25519.Sign(privateKey, encoded)
	return domain.SignedClaimEnvelope{Claim: claim, Signature: sig}, nil
}

// Verify checks an envelope locally against the claim's declared
// issuer key, exactly as the engine will.
func Verify(env domain.SignedClaimEnvelope) error {
	service := cryptoinfra.NewService()
	encoded := service.EncodeClaim(env.Claim)
	return service.VerifyClaimSignature(encoded, env.Signature, env.Claim.Issuer[:])
}
