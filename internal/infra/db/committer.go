package db

import (
	"context"

	"tierguard/internal/domain"
	"tierguard/internal/usecase"

	"gorm.io/gorm"
)

// ClaimCommitter writes an accepted claim's identity projection and its
// acceptance audit event in one transaction: the two commit or roll
// back together, with no partial field updates.
type ClaimCommitter struct {
	db *gorm.DB
}

func NewClaimCommitter(db *gorm.DB) *ClaimCommitter {
	return &ClaimCommitter{db: db}
}

func (c *ClaimCommitter) CommitAccepted(ctx context.Context, address domain.Address, identity domain.AddressIdentity, event domain.AuditEvent) (domain.AuditEvent, error) {
	if c.db == nil {
		return domain.AuditEvent{}, errDBUnavailable
	}
	var out domain.AuditEvent
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := putIdentityTx(ctx, tx, address, identity); err != nil {
			return err
		}
		sealed, err := appendAuditTx(ctx, tx, event)
		if err != nil {
			return err
		}
		out = sealed
		return nil
	})
	if err != nil {
		return domain.AuditEvent{}, err
	}
	return out, nil
}

var _ usecase.ClaimCommitter = (*ClaimCommitter)(nil)
