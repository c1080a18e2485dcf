package repository

import (
	"context"

	"github.com/jmoris/STPark-sub000/internal/model"
	"github.com/jmoris/STPark-sub000/internal/tenancy"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	CreateTx(tx *gorm.DB, p *model.Payment) error
	// FindByProviderTxID is the idempotency lookup for gateway callbacks.
	FindByProviderTxID(ctx context.Context, txID string) (*model.Payment, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Payment, error)
}

type paymentRepo struct{ db *gorm.DB }

func NewPaymentRepository(db *gorm.DB) PaymentRepository { return &paymentRepo{db: db} }

func (r *paymentRepo) CreateTx(tx *gorm.DB, p *model.Payment) error {
	return tx.Create(p).Error
}

func (r *paymentRepo) FindByProviderTxID(ctx context.Context, txID string) (*model.Payment, error) {
	var p model.Payment
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND provider_tx_id = ?", tenancy.FromContext(ctx), txID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Payment, error) {
	var payments []model.Payment
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&payments).Error
	return payments, err
}
