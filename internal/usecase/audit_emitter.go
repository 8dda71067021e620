package usecase

import (
	"context"
	"errors"
	"time"

	"tierguard/internal/domain"
)

// AuditEmitter appends engine events to the audit chain. It fills in
// stream, payload and timestamp defaults; sequencing and hashing are
// the repository's job.
type AuditEmitter struct {
	Repo  AuditEventRepository
	Clock Clock
}

func NewAuditEmitter(repo AuditEventRepository, clock Clock) *AuditEmitter {
	return &AuditEmitter{Repo: repo, Clock: clock}
}

func (e *AuditEmitter) Emit(ctx context.Context, event domain.AuditEvent) (domain.AuditEvent, error) {
	if e == nil || e.Repo == nil {
		return domain.AuditEvent{}, errors.New("audit repository required")
	}
	if event.EventType == "" || event.Result == "" {
		return domain.AuditEvent{}, errors.New("audit event missing required fields")
	}
	if event.Stream == "" {
		event.Stream = domain.AuditStreamGlobal
	}
	if event.Payload == nil {
		event.Payload = map[string]any{}
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = e.now().UTC()
	} else {
		event.CreatedAt = event.CreatedAt.UTC()
	}
	return e.Repo.Append(ctx, event)
}

func (e *AuditEmitter) EmitClaimRejected(ctx context.Context, address domain.Address, reason string) error {
	_, err := e.Emit(ctx, domain.AuditEvent{
		EventType: domain.AuditEventClaimRejected,
		Payload: map[string]any{
			"address": address.String(),
			"reason":  reason,
		},
		Result:    domain.AuditResultFailure,
		ErrorCode: reason,
	})
	return err
}

func (e *AuditEmitter) EmitClaimExpiredDetected(ctx context.Context, address domain.Address) error {
	_, err := e.Emit(ctx, domain.AuditEvent{
		EventType: domain.AuditEventClaimExpiredDetected,
		Payload: map[string]any{
			"address": address.String(),
		},
		Result: domain.AuditResultSuccess,
	})
	return err
}

func (e *AuditEmitter) EmitLimitCheck(ctx context.Context, address domain.Address, passed bool, limit, amount int64) error {
	result := domain.AuditResultSuccess
	errorCode := ""
	if !passed {
		result = domain.AuditResultFailure
		errorCode = "transaction_exceeds_limit"
	}
	_, err := e.Emit(ctx, domain.AuditEvent{
		EventType: domain.AuditEventLimitCheck,
		Payload: map[string]any{
			"address": address.String(),
			"passed":  passed,
			"limit":   limit,
			"amount":  amount,
		},
		Result:    result,
		ErrorCode: errorCode,
	})
	return err
}

func (e *AuditEmitter) EmitIssuerChanged(ctx context.Context, issuer domain.Address, authorized bool) error {
	_, err := e.Emit(ctx, domain.AuditEvent{
		EventType: domain.AuditEventIssuerChanged,
		Payload: map[string]any{
			"issuer":     issuer.String(),
			"authorized": authorized,
		},
		Result: domain.AuditResultSuccess,
	})
	return err
}

func (e *AuditEmitter) EmitLimitsConfigured(ctx context.Context, limits domain.TierLimits) error {
	_, err := e.Emit(ctx, domain.AuditEvent{
		EventType: domain.AuditEventLimitsConfigured,
		Payload: map[string]any{
			"unverified": limits.Unverified,
			"basic":      limits.Basic,
			"verified":   limits.Verified,
			"premium":    limits.Premium,
		},
		Result: domain.AuditResultSuccess,
	})
	return err
}

func (e *AuditEmitter) EmitRiskConfigured(ctx context.Context, risk domain.RiskThresholds) error {
	_, err := e.Emit(ctx, domain.AuditEvent{
		EventType: domain.AuditEventRiskConfigured,
		Payload: map[string]any{
			"high_risk_threshold":  risk.HighRiskThreshold,
			"high_risk_multiplier": risk.HighRiskMultiplier,
		},
		Result: domain.AuditResultSuccess,
	})
	return err
}

// ClaimAcceptedEvent builds the acceptance event committed atomically
// with the identity write.
func ClaimAcceptedEvent(claim domain.IdentityClaim, createdAt time.Time) domain.AuditEvent {
	return domain.AuditEvent{
		Stream:    domain.AuditStreamGlobal,
		EventType: domain.AuditEventClaimAccepted,
		Payload: map[string]any{
			"address":    claim.Address.String(),
			"tier":       claim.Tier.String(),
			"risk_score": claim.RiskScore,
			"expiry":     claim.Expiry,
		},
		Result:    domain.AuditResultSuccess,
		CreatedAt: createdAt.UTC(),
	}
}

func (e *AuditEmitter) now() time.Time {
	if e != nil && e.Clock != nil {
		return e.Clock.Now()
	}
	return time.Now()
}
