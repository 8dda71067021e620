package usecase

import (
	"context"
	"log/slog"
	"time"

	"tierguard/internal/domain"
)

// AdminService is the single writer of issuer authorizations and limit
// configuration. Every operation fully replaces the prior value and is
// recorded in the audit chain.
type AdminService struct {
	Issuers IssuerRepository
	Limits  LimitConfigRepository
	Audit   *AuditEmitter
	Clock   Clock
	Logger  *slog.Logger
}

func (s *AdminService) SetIssuerAuthorized(ctx context.Context, issuer domain.Address, authorized bool) error {
	if issuer.IsZero() {
		return domain.ErrInvalidClaimFormat
	}
	if err := s.Issuers.SetAuthorized(ctx, issuer, authorized, uint64(s.now().Unix())); err != nil {
		return err
	}
	if s.Audit != nil {
		if err := s.Audit.EmitIssuerChanged(ctx, issuer, authorized); err != nil {
			return err
		}
	}
	return nil
}

func (s *AdminService) ConfigureTierLimits(ctx context.Context, limits domain.TierLimits) error {
	if err := limits.Validate(); err != nil {
		return err
	}
	if !limits.Monotonic() && s.Logger != nil {
		s.Logger.Warn("tier limits configured non-monotonically",
			"unverified", limits.Unverified,
			"basic", limits.Basic,
			"verified", limits.Verified,
			"premium", limits.Premium,
		)
	}
	if err := s.Limits.PutTierLimits(ctx, limits); err != nil {
		return err
	}
	if s.Audit != nil {
		if err := s.Audit.EmitLimitsConfigured(ctx, limits); err != nil {
			return err
		}
	}
	return nil
}

func (s *AdminService) ConfigureRiskThresholds(ctx context.Context, risk domain.RiskThresholds) error {
	if err := risk.Validate(); err != nil {
		return err
	}
	if err := s.Limits.PutRiskThresholds(ctx, risk); err != nil {
		return err
	}
	if s.Audit != nil {
		if err := s.Audit.EmitRiskConfigured(ctx, risk); err != nil {
			return err
		}
	}
	return nil
}

func (s *AdminService) ListIssuers(ctx context.Context) ([]domain.Issuer, error) {
	return s.Issuers.List(ctx)
}

func (s *AdminService) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now()
	}
	return time.Now()
}
