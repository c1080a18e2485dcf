package handler

import (
	"net/http"

	"github.com/jmoris/STPark-sub000/internal/apierror"
	"github.com/jmoris/STPark-sub000/internal/dto"
	"github.com/jmoris/STPark-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ShiftHandler exposes the cash drawer lifecycle.
type ShiftHandler struct {
	shifts service.ShiftService
}

func NewShiftHandler(shifts service.ShiftService) *ShiftHandler {
	return &ShiftHandler{shifts: shifts}
}

// Open godoc
// @Summary      Open a shift with a counted opening float
// @Tags         shifts
// @Accept       json
// @Produce      json
// @Param        request body dto.OpenShiftRequest true "shift data"
// @Success      201 {object} dto.ShiftResponse
// @Failure      409 {object} apierror.APIError "an open shift already exists"
// @Router       /shifts/open [post]
func (h *ShiftHandler) Open(c *gin.Context) {
	var req dto.OpenShiftRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.shifts.Open(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Current godoc
// @Summary      Fetch the operator's open shift with live totals
// @Tags         shifts
// @Produce      json
// @Param        operator_id query string true  "operator id"
// @Param        device_id   query string false "device id"
// @Success      200 {object} dto.ShiftResponse
// @Failure      409 {object} apierror.APIError "no open shift"
// @Router       /shifts/current [get]
func (h *ShiftHandler) Current(c *gin.Context) {
	operatorID, err := uuid.Parse(c.Query("operator_id"))
	if err != nil {
		_ = c.Error(apierror.New(apierror.CodeValidation, "invalid operator_id"))
		return
	}
	var deviceID *string
	if d := c.Query("device_id"); d != "" {
		deviceID = &d
	}
	resp, err := h.shifts.Current(c.Request.Context(), operatorID, deviceID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary      Fetch a shift by id
// @Tags         shifts
// @Produce      json
// @Param        id path string true "shift id"
// @Success      200 {object} dto.ShiftResponse
// @Failure      404 {object} apierror.APIError
// @Router       /shifts/{id} [get]
func (h *ShiftHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.shifts.Get(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Operations godoc
// @Summary      List the shift's cash ledger
// @Tags         shifts
// @Produce      json
// @Param        id path string true "shift id"
// @Success      200 {array} dto.ShiftOperationResponse
// @Failure      404 {object} apierror.APIError
// @Router       /shifts/{id}/operations [get]
func (h *ShiftHandler) Operations(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	ops, err := h.shifts.Operations(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ops)
}

// Adjustment godoc
// @Summary      Record a manual withdrawal or deposit
// @Tags         shifts
// @Accept       json
// @Produce      json
// @Param        id      path string                     true "shift id"
// @Param        request body dto.ShiftAdjustmentRequest true "adjustment data"
// @Success      204
// @Failure      409 {object} apierror.APIError "shift not open"
// @Router       /shifts/{id}/adjustment [post]
func (h *ShiftHandler) Adjustment(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.ShiftAdjustmentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	operatorID, ok := callerOperator(c)
	if !ok {
		return
	}
	if err := h.shifts.RecordAdjustment(c.Request.Context(), id, operatorID, req); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Close godoc
// @Summary      Close a shift against a blind cash count
// @Tags         shifts
// @Accept       json
// @Produce      json
// @Param        id      path string               true "shift id"
// @Param        request body dto.CloseShiftRequest true "declared cash"
// @Success      200 {object} dto.ShiftResponse
// @Failure      409 {object} apierror.APIError "shift not open"
// @Router       /shifts/{id}/close [post]
func (h *ShiftHandler) Close(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.CloseShiftRequest
	if !bindAndValidate(c, &req) {
		return
	}
	closerID, ok := callerOperator(c)
	if !ok {
		return
	}
	resp, err := h.shifts.Close(c.Request.Context(), id, closerID, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cancel godoc
// @Summary      Void an open shift with no recorded operations
// @Tags         shifts
// @Produce      json
// @Param        id path string true "shift id"
// @Success      200 {object} dto.ShiftResponse
// @Failure      409 {object} apierror.APIError "shift has activity"
// @Router       /shifts/{id}/cancel [post]
func (h *ShiftHandler) Cancel(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.shifts.Cancel(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
