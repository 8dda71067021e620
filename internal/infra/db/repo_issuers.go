package db

import (
	"context"
	"errors"
	"time"

	"tierguard/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type IssuerRepository struct {
	db *gorm.DB
}

func NewIssuerRepository(db *gorm.DB) *IssuerRepository {
	return &IssuerRepository{db: db}
}

func (r *IssuerRepository) SetAuthorized(ctx context.Context, issuer domain.Address, authorized bool, now uint64) error {
	if r.db == nil {
		return errDBUnavailable
	}
	model := IssuerModel{
		Key:        issuer.String(),
		Authorized: authorized,
		UpdatedAt:  int64(now),
		CreatedAt:  time.Now().UTC(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"authorized", "updated_at"}),
	}).Create(&model).Error
}

func (r *IssuerRepository) IsAuthorized(ctx context.Context, issuer domain.Address) (bool, error) {
	if r.db == nil {
		return false, errDBUnavailable
	}
	var model IssuerModel
	err := r.db.WithContext(ctx).
		Where("key = ?", issuer.String()).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return model.Authorized, nil
}

func (r *IssuerRepository) List(ctx context.Context) ([]domain.Issuer, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []IssuerModel
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Issuer, 0, len(models))
	for _, model := range models {
		key, err := domain.ParseAddress(model.Key)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Issuer{
			Key:        key,
			Authorized: model.Authorized,
			UpdatedAt:  uint64(model.UpdatedAt),
		})
	}
	return out, nil
}
