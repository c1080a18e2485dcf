package model

import (
	"time"

	"github.com/google/uuid"
)

// Sector is a managed parking zone. Administered elsewhere; read-only here.
type Sector struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID string    `gorm:"type:varchar(64);not null;index"`
	Name     string    `gorm:"not null"`
	IsActive bool      `gorm:"not null;default:true"`

	Streets []Street `gorm:"foreignKey:SectorID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Street is a billable stretch inside a sector.
type Street struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SectorID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name     string    `gorm:"not null"`
	IsActive bool      `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Operator is a checkout-device or back-office user. Credentials live in the
// external auth service; this table only carries what settlement needs.
type Operator struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID string    `gorm:"type:varchar(64);not null;index"`
	Name     string    `gorm:"not null"`
	Role     string    `gorm:"type:varchar(20);not null;default:'operator'"` // operator | cashier | admin
	IsActive bool      `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
