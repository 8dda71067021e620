package db

import (
	"context"
	"errors"
	"time"

	"tierguard/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const limitConfigRowID = 1

type LimitConfigRepository struct {
	db *gorm.DB
}

func NewLimitConfigRepository(db *gorm.DB) *LimitConfigRepository {
	return &LimitConfigRepository{db: db}
}

func (r *LimitConfigRepository) GetTierLimits(ctx context.Context) (domain.TierLimits, error) {
	model, err := r.load(ctx)
	if err != nil {
		return domain.TierLimits{}, err
	}
	if model == nil {
		return domain.DefaultTierLimits(), nil
	}
	return domain.TierLimits{
		Unverified: model.UnverifiedLimit,
		Basic:      model.BasicLimit,
		Verified:   model.VerifiedLimit,
		Premium:    model.PremiumLimit,
	}, nil
}

func (r *LimitConfigRepository) PutTierLimits(ctx context.Context, limits domain.TierLimits) error {
	if r.db == nil {
		return errDBUnavailable
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model, err := loadTx(ctx, tx)
		if err != nil {
			return err
		}
		if model == nil {
			model = defaultConfigModel()
		}
		model.UnverifiedLimit = limits.Unverified
		model.BasicLimit = limits.Basic
		model.VerifiedLimit = limits.Verified
		model.PremiumLimit = limits.Premium
		model.UpdatedAt = time.Now().UTC()
		return saveTx(ctx, tx, model)
	})
}

func (r *LimitConfigRepository) GetRiskThresholds(ctx context.Context) (domain.RiskThresholds, error) {
	model, err := r.load(ctx)
	if err != nil {
		return domain.RiskThresholds{}, err
	}
	if model == nil {
		return domain.DefaultRiskThresholds(), nil
	}
	return domain.RiskThresholds{
		HighRiskThreshold:  uint32(model.HighRiskThreshold),
		HighRiskMultiplier: uint32(model.HighRiskMultiplier),
	}, nil
}

func (r *LimitConfigRepository) PutRiskThresholds(ctx context.Context, risk domain.RiskThresholds) error {
	if r.db == nil {
		return errDBUnavailable
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model, err := loadTx(ctx, tx)
		if err != nil {
			return err
		}
		if model == nil {
			model = defaultConfigModel()
		}
		model.HighRiskThreshold = int32(risk.HighRiskThreshold)
		model.HighRiskMultiplier = int32(risk.HighRiskMultiplier)
		model.UpdatedAt = time.Now().UTC()
		return saveTx(ctx, tx, model)
	})
}

func (r *LimitConfigRepository) load(ctx context.Context) (*LimitConfigModel, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	return loadTx(ctx, r.db)
}

func loadTx(ctx context.Context, tx *gorm.DB) (*LimitConfigModel, error) {
	var model LimitConfigModel
	err := tx.WithContext(ctx).Where("id = ?", limitConfigRowID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &model, nil
}

func saveTx(ctx context.Context, tx *gorm.DB, model *LimitConfigModel) error {
	model.ID = limitConfigRowID
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(model).Error
}

func defaultConfigModel() *LimitConfigModel {
	limits := domain.DefaultTierLimits()
	risk := domain.DefaultRiskThresholds()
	return &LimitConfigModel{
		ID:                 limitConfigRowID,
		UnverifiedLimit:    limits.Unverified,
		BasicLimit:         limits.Basic,
		VerifiedLimit:      limits.Verified,
		PremiumLimit:       limits.Premium,
		HighRiskThreshold:  int32(risk.HighRiskThreshold),
		HighRiskMultiplier: int32(risk.HighRiskMultiplier),
	}
}
