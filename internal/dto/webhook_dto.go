package dto

import "github.com/shopspring/decimal"

// PaymentWebhookRequest is the asynchronous confirmation posted by the card
// gateway. Replays carry the same transaction_id and must be idempotent.
type PaymentWebhookRequest struct {
	TransactionID string          `json:"transaction_id" validate:"required,max=64"`
	SessionID     string          `json:"session_id"     validate:"required,uuid"`
	Amount        decimal.Decimal `json:"amount"         validate:"required,gt=0"`
	Status        string          `json:"status"         validate:"required,oneof=approved rejected"`
	ProviderRef   string          `json:"provider_ref"   validate:"max=128"`
}
