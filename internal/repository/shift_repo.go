package repository

import (
	"context"

	"github.com/jmoris/STPark-sub000/internal/model"
	"github.com/jmoris/STPark-sub000/internal/tenancy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ShiftSums are the signed per-kind totals of a shift's operation ledger.
// Withdrawals are stored negative, so ExpectedCash is a plain addition.
type ShiftSums struct {
	CashPayments decimal.Decimal // PAYMENT rows with method CASH
	Deposits     decimal.Decimal
	Withdrawals  decimal.Decimal // negative or zero
}

type ShiftRepository interface {
	DB() *gorm.DB
	Create(ctx context.Context, s *model.Shift) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Shift, error)
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Shift, error)
	// FindOpenByOperator enforces the one-OPEN-shift invariant. A deviceID
	// narrows the scope to that handheld when provided.
	FindOpenByOperator(ctx context.Context, operatorID uuid.UUID, deviceID *string) (*model.Shift, error)
	UpdateTx(tx *gorm.DB, s *model.Shift) error
	CreateOperationTx(tx *gorm.DB, op *model.ShiftOperation) error
	CreateAdjustmentTx(tx *gorm.DB, adj *model.CashAdjustment) error
	ListOperations(ctx context.Context, shiftID uuid.UUID) ([]model.ShiftOperation, error)
	SumOperations(ctx context.Context, shiftID uuid.UUID) (ShiftSums, error)
	CountOperations(ctx context.Context, shiftID uuid.UUID) (int64, error)
}

type shiftRepo struct{ db *gorm.DB }

func NewShiftRepository(db *gorm.DB) ShiftRepository { return &shiftRepo{db: db} }

func (r *shiftRepo) DB() *gorm.DB { return r.db }

func (r *shiftRepo) Create(ctx context.Context, s *model.Shift) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *shiftRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Shift, error) {
	var s model.Shift
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenancy.FromContext(ctx)).
		First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *shiftRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Shift, error) {
	var s model.Shift
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *shiftRepo) FindOpenByOperator(ctx context.Context, operatorID uuid.UUID, deviceID *string) (*model.Shift, error) {
	q := r.db.WithContext(ctx).
		Where("tenant_id = ? AND operator_id = ? AND status = ?", tenancy.FromContext(ctx), operatorID, model.ShiftOpen)
	if deviceID != nil {
		q = q.Where("device_id = ?", *deviceID)
	}
	var s model.Shift
	if err := q.First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *shiftRepo) UpdateTx(tx *gorm.DB, s *model.Shift) error {
	return tx.Save(s).Error
}

func (r *shiftRepo) CreateOperationTx(tx *gorm.DB, op *model.ShiftOperation) error {
	return tx.Create(op).Error
}

func (r *shiftRepo) CreateAdjustmentTx(tx *gorm.DB, adj *model.CashAdjustment) error {
	return tx.Create(adj).Error
}

func (r *shiftRepo) ListOperations(ctx context.Context, shiftID uuid.UUID) ([]model.ShiftOperation, error) {
	var ops []model.ShiftOperation
	err := r.db.WithContext(ctx).
		Where("shift_id = ?", shiftID).
		Order("created_at ASC").
		Find(&ops).Error
	return ops, err
}

func (r *shiftRepo) SumOperations(ctx context.Context, shiftID uuid.UUID) (ShiftSums, error) {
	type row struct {
		Kind  string
		Total decimal.Decimal
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.ShiftOperation{}).
		Select("kind, COALESCE(SUM(amount), 0) AS total").
		Where("shift_id = ?", shiftID).
		Where("kind <> ? OR method = ?", model.OperationPayment, model.MethodCash).
		Group("kind").
		Scan(&rows).Error
	if err != nil {
		return ShiftSums{}, err
	}
	sums := ShiftSums{
		CashPayments: decimal.Zero,
		Deposits:     decimal.Zero,
		Withdrawals:  decimal.Zero,
	}
	for _, r := range rows {
		switch r.Kind {
		case model.OperationPayment:
			sums.CashPayments = r.Total
		case model.OperationDeposit:
			sums.Deposits = r.Total
		case model.OperationWithdrawal:
			sums.Withdrawals = r.Total
		}
	}
	return sums, nil
}

func (r *shiftRepo) CountOperations(ctx context.Context, shiftID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.ShiftOperation{}).
		Where("shift_id = ?", shiftID).
		Count(&n).Error
	return n, err
}
