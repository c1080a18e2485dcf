package handler

import (
	"net/http"

	"github.com/jmoris/STPark-sub000/internal/apierror"
	"github.com/jmoris/STPark-sub000/internal/dto"
	"github.com/jmoris/STPark-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

// DebtHandler exposes the per-plate debt ledger.
type DebtHandler struct {
	debts service.DebtService
}

func NewDebtHandler(debts service.DebtService) *DebtHandler {
	return &DebtHandler{debts: debts}
}

// Create godoc
// @Summary      Register a manual debt or fine
// @Tags         debts
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateDebtRequest true "debt data"
// @Success      201 {object} dto.DebtResponse
// @Failure      422 {object} apierror.ValidationError
// @Router       /debts [post]
func (h *DebtHandler) Create(c *gin.Context) {
	var req dto.CreateDebtRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.debts.CreateManual(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Get godoc
// @Summary      Fetch a debt by id
// @Tags         debts
// @Produce      json
// @Param        id path string true "debt id"
// @Success      200 {object} dto.DebtResponse
// @Failure      404 {object} apierror.APIError
// @Router       /debts/{id} [get]
func (h *DebtHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.debts.Get(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListByPlate godoc
// @Summary      List debts for a plate
// @Tags         debts
// @Produce      json
// @Param        plate  query string true  "license plate"
// @Param        status query string false "PENDING | SETTLED | CANCELLED"
// @Success      200 {array} dto.DebtResponse
// @Router       /debts [get]
func (h *DebtHandler) ListByPlate(c *gin.Context) {
	plate := c.Query("plate")
	if plate == "" {
		_ = c.Error(apierror.New(apierror.CodeValidation, "plate is required"))
		return
	}
	out, err := h.debts.ListByPlate(c.Request.Context(), plate, c.Query("status"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Settle godoc
// @Summary      Settle a pending debt
// @Tags         debts
// @Accept       json
// @Produce      json
// @Param        id      path string                true "debt id"
// @Param        request body dto.SettleDebtRequest true "settlement data"
// @Success      200 {object} dto.DebtResponse
// @Failure      409 {object} apierror.APIError "debt not pending"
// @Router       /debts/{id}/settle [post]
func (h *DebtHandler) Settle(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.SettleDebtRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.debts.Settle(c.Request.Context(), id, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
