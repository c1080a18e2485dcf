package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Debt statuses. SETTLED and CANCELLED are terminal.
const (
	DebtPending   = "PENDING"
	DebtSettled   = "SETTLED"
	DebtCancelled = "CANCELLED"
)

// Debt origins.
const (
	DebtOriginSession = "SESSION"
	DebtOriginFine    = "FINE"
	DebtOriginManual  = "MANUAL"
)

// Debt is an unpaid obligation recorded when a session ends without collected
// payment, or entered manually by the back office (fines, adjustments).
type Debt struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID        string          `gorm:"type:varchar(64);not null;index"`
	Plate           string          `gorm:"type:varchar(12);not null;index"`
	PrincipalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Origin          string          `gorm:"type:varchar(20);not null"`
	Status          string          `gorm:"type:varchar(20);not null;default:'PENDING';index"`

	// SessionID links back to the originating session for SESSION debts.
	SessionID *uuid.UUID `gorm:"type:uuid;index"`
	Notes     *string

	SettledAmount *decimal.Decimal `gorm:"type:decimal(12,2)"`
	SettledAt     *time.Time
	SettledBy     *uuid.UUID `gorm:"type:uuid"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
