package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Shift states. CLOSED and CANCELED are terminal.
const (
	ShiftOpen     = "OPEN"
	ShiftClosed   = "CLOSED"
	ShiftCanceled = "CANCELED"
)

// ShiftOperation kinds.
const (
	OperationPayment    = "PAYMENT"
	OperationWithdrawal = "WITHDRAWAL"
	OperationDeposit    = "DEPOSIT"
)

// Shift tracks an operator's cash drawer across a work period.
// At most one OPEN shift may exist per (operator, device) — enforced both in
// the service and by a partial unique index.
type Shift struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID   string     `gorm:"type:varchar(64);not null;index"`
	OperatorID uuid.UUID  `gorm:"type:uuid;not null;index"`
	SectorID   *uuid.UUID `gorm:"type:uuid"`
	DeviceID   *string    `gorm:"type:varchar(64)"`

	OpeningFloat decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// Closing figures, written once at close.
	ExpectedCash  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	DeclaredCash  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	CashOverShort *decimal.Decimal `gorm:"type:decimal(12,2)"`

	Status   string     `gorm:"type:varchar(20);not null;default:'OPEN';index"`
	Notes    *string
	ClosedBy *uuid.UUID `gorm:"type:uuid"`
	OpenedAt time.Time  `gorm:"not null"`
	ClosedAt *time.Time

	Operations []ShiftOperation `gorm:"foreignKey:ShiftID"`
}

// ShiftOperation is an immutable event in the shift cash ledger.
// Operations are NEVER modified or deleted — corrections create inverse rows.
type ShiftOperation struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ShiftID uuid.UUID `gorm:"type:uuid;not null;index"`
	Kind    string    `gorm:"type:varchar(20);not null"`
	Method  *string   `gorm:"type:varchar(20)"`
	// Amount is signed: payments and deposits positive, withdrawals negative.
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Description string          `gorm:"not null"`
	// ReferenceID links to the originating Payment or CashAdjustment.
	ReferenceID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt   time.Time
}

// CashAdjustment records a manual, reasoned cash movement during a shift.
// Append-only, mirrored by a ShiftOperation row in the same transaction.
type CashAdjustment struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ShiftID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	OperatorID uuid.UUID       `gorm:"type:uuid;not null"`
	Kind       string          `gorm:"type:varchar(20);not null"` // WITHDRAWAL | DEPOSIT
	Amount     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Reason     string          `gorm:"not null"`
	CreatedAt  time.Time
}
