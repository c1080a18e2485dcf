package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Session lifecycle. Transitions are one-way: ACTIVE → COMPLETED | CANCELED.
const (
	SessionActive    = "ACTIVE"
	SessionCompleted = "COMPLETED"
	SessionCanceled  = "CANCELED"
)

// Payment methods.
const (
	MethodCash     = "CASH"
	MethodCard     = "CARD"
	MethodWebpay   = "WEBPAY"
	MethodTransfer = "TRANSFER"
)

// Payment statuses.
const (
	PaymentApproved = "APPROVED"
	PaymentFailed   = "FAILED"
)

// ParkingSession tracks one vehicle inside a managed sector.
// StartedAt is set at creation and never changes; EndedAt is written exactly
// once, at the terminal transition.
type ParkingSession struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID        string    `gorm:"type:varchar(64);not null;index"`
	Plate           string    `gorm:"type:varchar(12);not null;index"`
	SectorID        uuid.UUID `gorm:"type:uuid;not null;index"`
	StreetID        uuid.UUID `gorm:"type:uuid;not null"`
	EntryOperatorID uuid.UUID `gorm:"type:uuid;not null"`
	ExitOperatorID  *uuid.UUID `gorm:"type:uuid"`

	Status    string     `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	StartedAt time.Time  `gorm:"not null"`
	EndedAt   *time.Time

	// FinalAmount is the quoted amount frozen at checkout (paid or not).
	FinalAmount *decimal.Decimal `gorm:"type:decimal(12,2)"`

	Payments []Payment `gorm:"foreignKey:SessionID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Payment is an immutable record of money received. It settles either a
// parking session or a debt, never both.
type Payment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID  string     `gorm:"type:varchar(64);not null;index"`
	SessionID *uuid.UUID `gorm:"type:uuid;index"`
	DebtID    *uuid.UUID `gorm:"type:uuid;index"`
	// ShiftID links the payment to the collecting operator's open shift so the
	// cash reconciler can derive cash_collected.
	ShiftID     *uuid.UUID      `gorm:"type:uuid;index"`
	OperatorID  uuid.UUID       `gorm:"type:uuid;not null"`
	Method      string          `gorm:"type:varchar(20);not null"`
	Status      string          `gorm:"type:varchar(20);not null;default:'APPROVED'"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// ProviderTxID makes asynchronous gateway confirmations idempotent: a
	// partial unique index rejects a second payment for the same transaction.
	ProviderTxID *string `gorm:"type:varchar(64)"`
	ProviderRef  *string `gorm:"type:varchar(128)"`

	CreatedAt time.Time
}
