package repository

import (
	"context"

	"github.com/jmoris/STPark-sub000/internal/model"
	"github.com/jmoris/STPark-sub000/internal/tenancy"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DebtRepository interface {
	DB() *gorm.DB
	Create(ctx context.Context, d *model.Debt) error
	CreateTx(tx *gorm.DB, d *model.Debt) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Debt, error)
	// FindByIDForUpdateTx locks the row: the PENDING check under this lock is
	// what makes settle succeed at most once.
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Debt, error)
	UpdateTx(tx *gorm.DB, d *model.Debt) error
	ListByPlate(ctx context.Context, plate, status string) ([]model.Debt, error)
}

type debtRepo struct{ db *gorm.DB }

func NewDebtRepository(db *gorm.DB) DebtRepository { return &debtRepo{db: db} }

func (r *debtRepo) DB() *gorm.DB { return r.db }

func (r *debtRepo) Create(ctx context.Context, d *model.Debt) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *debtRepo) CreateTx(tx *gorm.DB, d *model.Debt) error {
	return tx.Create(d).Error
}

func (r *debtRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Debt, error) {
	var d model.Debt
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenancy.FromContext(ctx)).
		First(&d, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *debtRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Debt, error) {
	var d model.Debt
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&d, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *debtRepo) UpdateTx(tx *gorm.DB, d *model.Debt) error {
	return tx.Save(d).Error
}

func (r *debtRepo) ListByPlate(ctx context.Context, plate, status string) ([]model.Debt, error) {
	q := r.db.WithContext(ctx).
		Where("tenant_id = ? AND plate = ?", tenancy.FromContext(ctx), plate)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var debts []model.Debt
	err := q.Order("created_at DESC").Find(&debts).Error
	return debts, err
}
