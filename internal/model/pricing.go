package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Rule types supported by the quote calculator.
const (
	RuleTimeBased = "TIME_BASED"
	RuleFixed     = "FIXED"
	RuleGraduated = "GRADUATED"
)

// Discount types supported by the discount resolver.
const (
	DiscountAmount         = "AMOUNT"
	DiscountPercentage     = "PERCENTAGE"
	DiscountPricingProfile = "PRICING_PROFILE"
)

// PricingProfile is a named, time-bounded tariff configuration for a sector.
// The settlement core only reads profiles; administration lives in the
// back-office CRUD surface.
type PricingProfile struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID   string     `gorm:"type:varchar(64);not null;index"`
	SectorID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	Name       string     `gorm:"not null"`
	ActiveFrom *time.Time // nil = open-ended
	ActiveTo   *time.Time
	IsActive   bool `gorm:"not null;default:true"`

	Rules []PricingRule `gorm:"foreignKey:ProfileID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PricingRule is one tariff line within a profile. A rule only governs a
// checkout when the reference instant falls inside its day/time windows AND
// the elapsed duration falls inside [MinDurationMinutes, MaxDurationMinutes].
type PricingRule struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProfileID uuid.UUID `gorm:"type:uuid;not null;index"`
	RuleType  string    `gorm:"type:varchar(20);not null"`

	MinDurationMinutes int  `gorm:"not null;default:0"`
	MaxDurationMinutes *int // nil = unbounded; when set, strictly > min

	PricePerMin *decimal.Decimal `gorm:"type:decimal(12,2)"` // TIME_BASED / GRADUATED
	FixedPrice  *decimal.Decimal `gorm:"type:decimal(12,2)"` // FIXED

	DailyMaxAmount *decimal.Decimal `gorm:"type:decimal(12,2)"`
	MinAmount      *decimal.Decimal `gorm:"type:decimal(12,2)"`
	// MinAmountIsBase: true = MinAmount buys the first minutes and the
	// per-minute rate applies only to the remainder; false = MinAmount is a
	// plain floor on the whole computed amount.
	MinAmountIsBase bool `gorm:"not null;default:false"`

	// DaysOfWeek holds weekday numbers 0 (Sunday) … 6. Empty = every day.
	DaysOfWeek datatypes.JSONSlice[int] `gorm:"type:jsonb"`
	// StartTime/EndTime are "HH:MM" time-of-day bounds. A window may wrap past
	// midnight (e.g. 22:00–06:00). Both nil = all day.
	StartTime *string `gorm:"type:varchar(5)"`
	EndTime   *string `gorm:"type:varchar(5)"`

	Priority int  `gorm:"not null;default:100;index"` // lower = evaluated first
	IsActive bool `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionDiscount is an independently configured reduction applied on top of a
// computed quote. Not tied to any pricing profile.
type SessionDiscount struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID     string    `gorm:"type:varchar(64);not null;index"`
	Code         string    `gorm:"type:varchar(40);not null;uniqueIndex:uni_session_discounts_code"`
	DiscountType string    `gorm:"type:varchar(20);not null"`

	Value       *decimal.Decimal `gorm:"type:decimal(12,2)"` // AMOUNT / PERCENTAGE
	MinuteValue *decimal.Decimal `gorm:"type:decimal(12,2)"` // PRICING_PROFILE alternate rate
	MaxAmount   *decimal.Decimal `gorm:"type:decimal(12,2)"` // cap on the discount itself
	MinAmount   *decimal.Decimal `gorm:"type:decimal(12,2)"` // floor on the discounted amount

	Priority   int `gorm:"not null;default:100"`
	ValidFrom  *time.Time
	ValidUntil *time.Time
	IsActive   bool `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
