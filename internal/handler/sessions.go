package handler

import (
	"net/http"
	"time"

	"github.com/jmoris/STPark-sub000/internal/apierror"
	"github.com/jmoris/STPark-sub000/internal/dto"
	"github.com/jmoris/STPark-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionHandler exposes the parking session lifecycle.
type SessionHandler struct {
	sessions service.SessionService
	checkout service.CheckoutService
}

func NewSessionHandler(sessions service.SessionService, checkout service.CheckoutService) *SessionHandler {
	return &SessionHandler{sessions: sessions, checkout: checkout}
}

// Create godoc
// @Summary      Start a parking session
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateSessionRequest true "session data"
// @Success      201 {object} dto.SessionResponse
// @Failure      422 {object} apierror.ValidationError
// @Router       /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	var req dto.CreateSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	operatorID, ok := callerOperator(c)
	if !ok {
		return
	}
	if req.OperatorID != nil {
		id, err := uuid.Parse(*req.OperatorID)
		if err != nil {
			_ = c.Error(apierror.New(apierror.CodeValidation, "invalid operator_id"))
			return
		}
		operatorID = id
	}

	resp, err := h.sessions.Create(c.Request.Context(), operatorID, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Get godoc
// @Summary      Fetch a session with its payments
// @Tags         sessions
// @Produce      json
// @Param        id path string true "session id"
// @Success      200 {object} dto.SessionResponse
// @Failure      404 {object} apierror.APIError
// @Router       /sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.sessions.Get(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ActiveByPlate godoc
// @Summary      Find the active session for a plate
// @Tags         sessions
// @Produce      json
// @Param        plate query string true "license plate"
// @Success      200 {object} dto.SessionResponse
// @Failure      404 {object} apierror.APIError
// @Router       /sessions/active [get]
func (h *SessionHandler) ActiveByPlate(c *gin.Context) {
	plate := c.Query("plate")
	if plate == "" {
		_ = c.Error(apierror.New(apierror.CodeValidation, "plate is required"))
		return
	}
	resp, err := h.sessions.FindActiveByPlate(c.Request.Context(), plate)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Quote godoc
// @Summary      Compute the amount due, read-only
// @Tags         sessions
// @Produce      json
// @Param        id            path  string true  "session id"
// @Param        ended_at      query string false "settlement instant, RFC3339"
// @Param        discount_code query string false "discount code to pin"
// @Success      200 {object} dto.QuoteResponse
// @Failure      409 {object} apierror.APIError
// @Router       /sessions/{id}/quote [get]
func (h *SessionHandler) Quote(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var endedAt *time.Time
	if raw := c.Query("ended_at"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			_ = c.Error(apierror.New(apierror.CodeValidation, "ended_at must be RFC3339"))
			return
		}
		endedAt = &t
	}

	resp, err := h.sessions.Quote(c.Request.Context(), id, endedAt, c.Query("discount_code"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Checkout godoc
// @Summary      Settle a session against a collected payment
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id      path string              true "session id"
// @Param        request body dto.CheckoutRequest true "payment data"
// @Success      200 {object} dto.SessionResponse
// @Failure      409 {object} apierror.APIError
// @Router       /sessions/{id}/checkout [post]
func (h *SessionHandler) Checkout(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.CheckoutRequest
	if !bindAndValidate(c, &req) {
		return
	}
	operatorID, ok := callerOperator(c)
	if !ok {
		return
	}

	resp, err := h.checkout.Checkout(c.Request.Context(), id, operatorID, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Charge godoc
// @Summary      Start an electronic charge for the session's quote
// @Description  The gateway confirms asynchronously through the payment webhook;
// @Description  the session stays active until then.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id      path string                    true "session id"
// @Param        request body dto.InitiateChargeRequest true "charge data"
// @Success      202 {object} dto.ChargeResponse
// @Failure      409 {object} apierror.APIError
// @Failure      502 {object} apierror.APIError
// @Router       /sessions/{id}/charge [post]
func (h *SessionHandler) Charge(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.InitiateChargeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.checkout.InitiateCharge(c.Request.Context(), id, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

// ForceCheckout godoc
// @Summary      Complete a session without payment, booking a debt
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id      path string                   true  "session id"
// @Param        request body dto.ForceCheckoutRequest false "optional end instant"
// @Success      200 {object} dto.SessionResponse
// @Failure      409 {object} apierror.APIError
// @Router       /sessions/{id}/force-checkout-without-payment [post]
func (h *SessionHandler) ForceCheckout(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.ForceCheckoutRequest
	if c.Request.ContentLength > 0 {
		if !bindAndValidate(c, &req) {
			return
		}
	}
	operatorID, ok := callerOperator(c)
	if !ok {
		return
	}

	resp, err := h.checkout.ForceCheckout(c.Request.Context(), id, operatorID, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cancel godoc
// @Summary      Void a session with no charge
// @Tags         sessions
// @Produce      json
// @Param        id path string true "session id"
// @Success      200 {object} dto.SessionResponse
// @Failure      409 {object} apierror.APIError
// @Router       /sessions/{id}/cancel [post]
func (h *SessionHandler) Cancel(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	operatorID, ok := callerOperator(c)
	if !ok {
		return
	}
	resp, err := h.sessions.Cancel(c.Request.Context(), id, operatorID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
