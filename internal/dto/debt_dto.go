package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateDebtRequest struct {
	Plate  string          `json:"plate"  validate:"required,min=4,max=12"`
	Amount decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Origin string          `json:"origin" validate:"required,oneof=MANUAL FINE"`
	Notes  *string         `json:"notes"`
}

type SettleDebtRequest struct {
	Amount             decimal.Decimal `json:"amount"              validate:"required,gt=0"`
	Method             string          `json:"method"              validate:"required,oneof=CASH CARD WEBPAY TRANSFER"`
	CashierOperatorID  string          `json:"cashier_operator_id" validate:"required,uuid"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type DebtResponse struct {
	ID              string           `json:"id"`
	Plate           string           `json:"plate"`
	PrincipalAmount decimal.Decimal  `json:"principal_amount"`
	Origin          string           `json:"origin"`
	Status          string           `json:"status"`
	SessionID       *string          `json:"session_id,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
	SettledAmount   *decimal.Decimal `json:"settled_amount,omitempty"`
	SettledAt       *string          `json:"settled_at,omitempty"`
	CreatedAt       string           `json:"created_at"`
}
