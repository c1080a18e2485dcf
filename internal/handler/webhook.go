package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/jmoris/STPark-sub000/internal/apierror"
	"github.com/jmoris/STPark-sub000/internal/dto"
	"github.com/jmoris/STPark-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

// WebhookHandler receives asynchronous confirmations from the payment
// gateway sidecar.
type WebhookHandler struct {
	checkout service.CheckoutService
	secret   string
}

func NewWebhookHandler(checkout service.CheckoutService, secret string) *WebhookHandler {
	return &WebhookHandler{checkout: checkout, secret: secret}
}

// Payment godoc
// @Summary      Process a gateway payment confirmation
// @Description  Idempotent by transaction_id. Replays return the payment
// @Description  already on file without re-processing.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        request body dto.PaymentWebhookRequest true "confirmation"
// @Success      200 {object} dto.PaymentResponse
// @Failure      401 {object} apierror.APIError "bad signature"
// @Failure      404 {object} apierror.APIError "unknown session"
// @Router       /webhooks/payments [post]
func (h *WebhookHandler) Payment(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		_ = c.Error(apierror.New(apierror.CodeValidation, "unreadable body"))
		return
	}

	// Signature check is skipped only when no secret is configured (dev).
	if h.secret != "" && !h.verifySignature(body, c.GetHeader("X-Webhook-Signature")) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var req dto.PaymentWebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		_ = c.Error(apierror.New(apierror.CodeValidation, "malformed request body"))
		return
	}
	if err := validate.Struct(&req); err != nil {
		_ = c.Error(apierror.NewValidation(map[string]string{"body": "validation failed"}))
		return
	}

	resp, err := h.checkout.HandleProviderCallback(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *WebhookHandler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
