package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateSessionRequest struct {
	Plate    string `json:"plate"     validate:"required,min=4,max=12"`
	SectorID string `json:"sector_id" validate:"required,uuid"`
	StreetID string `json:"street_id" validate:"required,uuid"`
	// OperatorID overrides the authenticated operator, for supervisors
	// registering entries on someone else's behalf.
	OperatorID *string `json:"operator_id" validate:"omitempty,uuid"`
}

type CheckoutRequest struct {
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=CASH CARD WEBPAY TRANSFER"`
	Amount        decimal.Decimal `json:"amount"         validate:"required,gt=0"`
	// EndedAt defaults to the server clock when omitted.
	EndedAt *time.Time `json:"ended_at"`
}

type ForceCheckoutRequest struct {
	EndedAt *time.Time `json:"ended_at"`
}

// InitiateChargeRequest starts an electronic charge with the card gateway.
type InitiateChargeRequest struct {
	Method string `json:"method" validate:"required,oneof=CARD WEBPAY"`
	// EndedAt defaults to the server clock when omitted.
	EndedAt *time.Time `json:"ended_at"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PaymentResponse struct {
	ID           string          `json:"id"`
	Method       string          `json:"method"`
	Status       string          `json:"status"`
	Amount       decimal.Decimal `json:"amount"`
	ProviderRef  *string         `json:"provider_ref,omitempty"`
	CreatedAt    string          `json:"created_at"`
}

type SessionResponse struct {
	ID          string            `json:"id"`
	Plate       string            `json:"plate"`
	SectorID    string            `json:"sector_id"`
	StreetID    string            `json:"street_id"`
	Status      string            `json:"status"`
	StartedAt   string            `json:"started_at"`
	EndedAt     *string           `json:"ended_at,omitempty"`
	FinalAmount *decimal.Decimal  `json:"final_amount,omitempty"`
	Payments    []PaymentResponse `json:"payments,omitempty"`
}

// ChargeResponse carries the gateway's transaction handle. The session settles
// when the confirmation webhook arrives with this transaction id.
type ChargeResponse struct {
	TransactionID string          `json:"transaction_id"`
	RedirectURL   string          `json:"redirect_url,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
}

// QuoteResponse is a read-only computation — requesting it any number of times
// has no side effects.
type QuoteResponse struct {
	SessionID      string          `json:"session_id"`
	RuleID         string          `json:"rule_id"`
	RuleType       string          `json:"rule_type"`
	ElapsedMinutes int             `json:"elapsed_minutes"`
	GrossAmount    decimal.Decimal `json:"gross_amount"`
	DiscountCode   *string         `json:"discount_code,omitempty"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Amount         decimal.Decimal `json:"amount"`
	QuotedAt       string          `json:"quoted_at"`
}
