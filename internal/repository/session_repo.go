package repository

import (
	"context"

	"github.com/jmoris/STPark-sub000/internal/model"
	"github.com/jmoris/STPark-sub000/internal/tenancy"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionRepository interface {
	// DB exposes the underlying handle for transaction scoping (nil in unit tests).
	DB() *gorm.DB
	Create(ctx context.Context, s *model.ParkingSession) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ParkingSession, error)
	FindActiveByPlate(ctx context.Context, plate string) (*model.ParkingSession, error)
	// FindByIDForUpdateTx takes a row lock so that two concurrent checkouts on
	// the same session serialize — exactly one observes ACTIVE.
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.ParkingSession, error)
	UpdateTx(tx *gorm.DB, s *model.ParkingSession) error
}

type sessionRepo struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &sessionRepo{db: db} }

func (r *sessionRepo) DB() *gorm.DB { return r.db }

func (r *sessionRepo) Create(ctx context.Context, s *model.ParkingSession) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *sessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ParkingSession, error) {
	var s model.ParkingSession
	err := r.db.WithContext(ctx).
		Preload("Payments").
		Where("tenant_id = ?", tenancy.FromContext(ctx)).
		First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) FindActiveByPlate(ctx context.Context, plate string) (*model.ParkingSession, error) {
	var s model.ParkingSession
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND plate = ? AND status = ?", tenancy.FromContext(ctx), plate, model.SessionActive).
		Order("started_at DESC").
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.ParkingSession, error) {
	var s model.ParkingSession
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) UpdateTx(tx *gorm.DB, s *model.ParkingSession) error {
	return tx.Save(s).Error
}
