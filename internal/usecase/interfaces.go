package usecase

import (
	"context"
	"time"

	"tierguard/internal/domain"
)

type Clock interface {
	Now() time.Time
}

// IdentityRepository is the per-address identity store. Get returns
// domain.ErrNotFound for addresses with no accepted claim; it never
// applies expiry, which is a read-time concern of ResolveIdentity.
type IdentityRepository interface {
	Get(ctx context.Context, address domain.Address) (*domain.AddressIdentity, error)
	Put(ctx context.Context, address domain.Address, identity domain.AddressIdentity) error
}

// ClaimCommitter persists an accepted claim's projection together with
// its acceptance audit event in one atomic step.
type ClaimCommitter interface {
	CommitAccepted(ctx context.Context, address domain.Address, identity domain.AddressIdentity, event domain.AuditEvent) (domain.AuditEvent, error)
}

// IssuerRepository is the authorized-issuer registry. Absence of an
// entry reads as not authorized.
type IssuerRepository interface {
	SetAuthorized(ctx context.Context, issuer domain.Address, authorized bool, now uint64) error
	IsAuthorized(ctx context.Context, issuer domain.Address) (bool, error)
	List(ctx context.Context) ([]domain.Issuer, error)
}

// LimitConfigRepository stores the process-wide TierLimits and
// RiskThresholds. Gets return the built-in defaults until an
// administrator has configured replacements.
type LimitConfigRepository interface {
	GetTierLimits(ctx context.Context) (domain.TierLimits, error)
	PutTierLimits(ctx context.Context, limits domain.TierLimits) error
	GetRiskThresholds(ctx context.Context) (domain.RiskThresholds, error)
	PutRiskThresholds(ctx context.Context, risk domain.RiskThresholds) error
}

type AuditEventRepository interface {
	Append(ctx context.Context, event domain.AuditEvent) (domain.AuditEvent, error)
	ListRecent(ctx context.Context, limit int) ([]domain.AuditEvent, error)
}

type CryptoService interface {
	EncodeClaim(claim domain.IdentityClaim) []byte
	VerifyClaimSignature(encoded, signature, pubKey []byte) error
}

// EnforcementPolicy is an optional overlay consulted after the numeric
// limit check passes. It can only further restrict a transfer.
type EnforcementPolicy interface {
	Evaluate(ctx context.Context, input PolicyInput) (PolicyDecision, error)
}

type PolicyInput struct {
	Address   string `json:"address"`
	Tier      string `json:"tier"`
	RiskScore uint32 `json:"risk_score"`
	Amount    int64  `json:"amount"`
	Limit     int64  `json:"limit"`
}

type PolicyDecision struct {
	Allow   bool
	Reasons []string
}
