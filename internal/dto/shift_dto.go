package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenShiftRequest struct {
	OperatorID   string          `json:"operator_id"   validate:"required,uuid"`
	OpeningFloat decimal.Decimal `json:"opening_float" validate:"min=0"`
	SectorID     *string         `json:"sector_id"     validate:"omitempty,uuid"`
	DeviceID     *string         `json:"device_id"     validate:"omitempty,max=64"`
}

type ShiftAdjustmentRequest struct {
	Type   string          `json:"type"   validate:"required,oneof=WITHDRAWAL DEPOSIT"`
	Amount decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Reason string          `json:"reason" validate:"required,min=3"`
}

type CloseShiftRequest struct {
	ClosingDeclaredCash decimal.Decimal `json:"closing_declared_cash" validate:"min=0"`
	Notes               *string         `json:"notes"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// ShiftTotals is derived from the append-only operation ledger; computing it
// never mutates state.
type ShiftTotals struct {
	OpeningFloat    decimal.Decimal `json:"opening_float"`
	CashCollected   decimal.Decimal `json:"cash_collected"`
	CashDeposits    decimal.Decimal `json:"cash_deposits"`
	CashWithdrawals decimal.Decimal `json:"cash_withdrawals"`
	ExpectedCash    decimal.Decimal `json:"expected_cash"`
}

type ShiftResponse struct {
	ID            string           `json:"id"`
	OperatorID    string           `json:"operator_id"`
	SectorID      *string          `json:"sector_id,omitempty"`
	DeviceID      *string          `json:"device_id,omitempty"`
	Status        string           `json:"status"`
	Totals        ShiftTotals      `json:"totals"`
	DeclaredCash  *decimal.Decimal `json:"declared_cash,omitempty"`
	CashOverShort *decimal.Decimal `json:"cash_over_short,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
	OpenedAt      string           `json:"opened_at"`
	ClosedAt      *string          `json:"closed_at,omitempty"`
}

type ShiftOperationResponse struct {
	ID          string          `json:"id"`
	Kind        string          `json:"kind"`
	Method      *string         `json:"method,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	CreatedAt   string          `json:"created_at"`
}
