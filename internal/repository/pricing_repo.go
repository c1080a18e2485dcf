package repository

import (
	"context"
	"time"

	"github.com/jmoris/STPark-sub000/internal/model"
	"github.com/jmoris/STPark-sub000/internal/tenancy"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PricingRepository reads the tariff catalog. The settlement core never
// writes pricing data — administration lives in the back-office CRUD surface.
type PricingRepository interface {
	// ActiveProfilesForSector returns the sector's active profiles whose
	// active_from/active_to window contains at, with rules preloaded.
	ActiveProfilesForSector(ctx context.Context, sectorID uuid.UUID, at time.Time) ([]model.PricingProfile, error)
	ActiveDiscounts(ctx context.Context, at time.Time) ([]model.SessionDiscount, error)
	FindDiscountByCode(ctx context.Context, code string) (*model.SessionDiscount, error)
}

type pricingRepo struct{ db *gorm.DB }

func NewPricingRepository(db *gorm.DB) PricingRepository { return &pricingRepo{db: db} }

func (r *pricingRepo) ActiveProfilesForSector(ctx context.Context, sectorID uuid.UUID, at time.Time) ([]model.PricingProfile, error) {
	var profiles []model.PricingProfile
	err := r.db.WithContext(ctx).
		Preload("Rules", "is_active = ?", true).
		Where("tenant_id = ? AND sector_id = ? AND is_active = ?", tenancy.FromContext(ctx), sectorID, true).
		Where("active_from IS NULL OR active_from <= ?", at).
		Where("active_to IS NULL OR active_to >= ?", at).
		Find(&profiles).Error
	return profiles, err
}

func (r *pricingRepo) ActiveDiscounts(ctx context.Context, at time.Time) ([]model.SessionDiscount, error) {
	var discounts []model.SessionDiscount
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_active = ?", tenancy.FromContext(ctx), true).
		Where("valid_from IS NULL OR valid_from <= ?", at).
		Where("valid_until IS NULL OR valid_until >= ?", at).
		Order("priority ASC, id ASC").
		Find(&discounts).Error
	return discounts, err
}

func (r *pricingRepo) FindDiscountByCode(ctx context.Context, code string) (*model.SessionDiscount, error) {
	var d model.SessionDiscount
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND code = ?", tenancy.FromContext(ctx), code).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}
