package db

import (
	"context"
	"errors"
	"time"

	"tierguard/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type IdentityRepository struct {
	db *gorm.DB
}

func NewIdentityRepository(db *gorm.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

func (r *IdentityRepository) Get(ctx context.Context, address domain.Address) (*domain.AddressIdentity, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model AddressIdentityModel
	err := r.db.WithContext(ctx).
		Where("address = ?", address.String()).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return identityFromModel(model), nil
}

func (r *IdentityRepository) Put(ctx context.Context, address domain.Address, identity domain.AddressIdentity) error {
	if r.db == nil {
		return errDBUnavailable
	}
	return putIdentityTx(ctx, r.db, address, identity)
}

func putIdentityTx(ctx context.Context, tx *gorm.DB, address domain.Address, identity domain.AddressIdentity) error {
	model := AddressIdentityModel{
		Address:     address.String(),
		Tier:        uint32(identity.Tier),
		RiskScore:   identity.RiskScore,
		Expiry:      int64(identity.Expiry),
		LastUpdated: int64(identity.LastUpdated),
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"tier", "risk_score", "expiry", "last_updated", "updated_at",
		}),
	}).Create(&model).Error
}

func identityFromModel(model AddressIdentityModel) *domain.AddressIdentity {
	return &domain.AddressIdentity{
		Tier:        domain.IdentityTier(model.Tier),
		RiskScore:   model.RiskScore,
		Expiry:      uint64(model.Expiry),
		LastUpdated: uint64(model.LastUpdated),
	}
}
