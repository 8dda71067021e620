package usecase

import (
	"context"
	"crypto/ed25519"
	"time"

	"tierguard/internal/domain"
)

type ProcessClaimRequest struct {
	Envelope domain.SignedClaimEnvelope
}

// ClaimReceipt reports the stored projection of an accepted claim.
type ClaimReceipt struct {
	Address     domain.Address
	Tier        domain.IdentityTier
	RiskScore   uint32
	Expiry      uint64
	LastUpdated uint64
}

// ProcessClaim authenticates a submitted claim and, on success,
// replaces the address's stored identity in full. Check order is fixed:
// format, issuer authorization, signature, expiry. The single error
// reported for a bad claim depends on that order, so it must not be
// rearranged. Every failure leaves all state untouched.
type ProcessClaim struct {
	Identities ClaimCommitter
	Issuers    IssuerRepository
	Crypto     CryptoService
	Audit      *AuditEmitter
	Clock      Clock
}

func (uc *ProcessClaim) Execute(ctx context.Context, req ProcessClaimRequest) (*ClaimReceipt, error) {
	claim := req.Envelope.Claim
	now := uc.now()

	if err := validateClaimFormat(req.Envelope); err != nil {
		return nil, uc.reject(ctx, claim.Address, err)
	}

	authorized, err := uc.Issuers.IsAuthorized(ctx, claim.Issuer)
	if err != nil {
		return nil, err
	}
	if !authorized {
		return nil, uc.reject(ctx, claim.Address, domain.ErrUnauthorizedIssuer)
	}

	encoded := uc.Crypto.EncodeClaim(claim)
	if err := uc.Crypto.VerifyClaimSignature(encoded, req.Envelope.Signature, claim.Issuer[:]); err != nil {
		return nil, uc.reject(ctx, claim.Address, domain.ErrInvalidSignature)
	}

	nowUnix := uint64(now.Unix())
	if claim.Expiry <= nowUnix {
		return nil, uc.reject(ctx, claim.Address, domain.ErrClaimExpired)
	}

	identity := domain.AddressIdentity{
		Tier:        claim.Tier,
		RiskScore:   claim.RiskScore,
		Expiry:      claim.Expiry,
		LastUpdated: nowUnix,
	}
	if _, err := uc.Identities.CommitAccepted(ctx, claim.Address, identity, ClaimAcceptedEvent(claim, now)); err != nil {
		return nil, err
	}

	return &ClaimReceipt{
		Address:     claim.Address,
		Tier:        identity.Tier,
		RiskScore:   identity.RiskScore,
		Expiry:      identity.Expiry,
		LastUpdated: identity.LastUpdated,
	}, nil
}

func validateClaimFormat(env domain.SignedClaimEnvelope) error {
	claim := env.Claim
	if claim.Address.IsZero() || claim.Issuer.IsZero() {
		return domain.ErrInvalidClaimFormat
	}
	if len(env.Signature) != ed25519.SignatureSize {
		return domain.ErrInvalidClaimFormat
	}
	if !claim.Tier.Valid() {
		return domain.ErrInvalidTier
	}
	if claim.RiskScore > domain.MaxRiskScore {
		return domain.ErrInvalidRiskScore
	}
	return nil
}

// reject records the rejection in the audit log and returns the reason.
// The audit append is best-effort: the rejection itself is the
// caller-visible outcome.
func (uc *ProcessClaim) reject(ctx context.Context, address domain.Address, reason error) error {
	if uc.Audit != nil {
		_ = uc.Audit.EmitClaimRejected(ctx, address, rejectionCode(reason))
	}
	return reason
}

func rejectionCode(err error) string {
	switch err {
	case domain.ErrInvalidTier:
		return "invalid_tier"
	case domain.ErrInvalidRiskScore:
		return "invalid_risk_score"
	case domain.ErrUnauthorizedIssuer:
		return "unauthorized_issuer"
	case domain.ErrInvalidSignature:
		return "invalid_signature"
	case domain.ErrClaimExpired:
		return "claim_expired"
	default:
		return "invalid_claim_format"
	}
}

func (uc *ProcessClaim) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now()
	}
	return time.Now()
}
