package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jmoris/STPark-sub000/internal/dto"
	"github.com/jmoris/STPark-sub000/internal/middleware"
	"github.com/jmoris/STPark-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCheckout struct {
	lastCallback *dto.PaymentWebhookRequest
	response     *dto.PaymentResponse
	err          error
}

var _ service.CheckoutService = (*stubCheckout)(nil)

func (s *stubCheckout) Checkout(context.Context, uuid.UUID, uuid.UUID, dto.CheckoutRequest) (*dto.SessionResponse, error) {
	return nil, nil
}

func (s *stubCheckout) ForceCheckout(context.Context, uuid.UUID, uuid.UUID, dto.ForceCheckoutRequest) (*dto.SessionResponse, error) {
	return nil, nil
}

func (s *stubCheckout) InitiateCharge(context.Context, uuid.UUID, dto.InitiateChargeRequest) (*dto.ChargeResponse, error) {
	return nil, nil
}

func (s *stubCheckout) HandleProviderCallback(_ context.Context, req dto.PaymentWebhookRequest) (*dto.PaymentResponse, error) {
	s.lastCallback = &req
	return s.response, s.err
}

func webhookRouter(stub *stubCheckout, secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	h := NewWebhookHandler(stub, secret)
	r.POST("/webhooks/payments", h.Payment)
	return r
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func validWebhookBody() []byte {
	return []byte(`{"transaction_id":"tx-1","session_id":"` + uuid.NewString() + `","amount":1500,"status":"approved"}`)
}

func TestWebhookAcceptsSignedPayload(t *testing.T) {
	stub := &stubCheckout{response: &dto.PaymentResponse{
		ID:     uuid.NewString(),
		Method: "WEBPAY",
		Status: "APPROVED",
		Amount: decimal.NewFromInt(1500),
	}}
	r := webhookRouter(stub, "hook-secret")
	body := validWebhookBody()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments", bytes.NewReader(body))
	req.Header.Set("X-Webhook-Signature", sign("hook-secret", body))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, stub.lastCallback)
	assert.Equal(t, "tx-1", stub.lastCallback.TransactionID)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	stub := &stubCheckout{}
	r := webhookRouter(stub, "hook-secret")
	body := validWebhookBody()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments", bytes.NewReader(body))
	req.Header.Set("X-Webhook-Signature", sign("wrong-secret", body))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, stub.lastCallback)
}

func TestWebhookRejectsInvalidStatusValue(t *testing.T) {
	stub := &stubCheckout{}
	r := webhookRouter(stub, "")
	body := []byte(`{"transaction_id":"tx-1","session_id":"` + uuid.NewString() + `","amount":1500,"status":"maybe"}`)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments", bytes.NewReader(body))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Nil(t, stub.lastCallback)
}

func TestWebhookRejectsMalformedJSON(t *testing.T) {
	stub := &stubCheckout{}
	r := webhookRouter(stub, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments", bytes.NewReader([]byte("{not json")))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
