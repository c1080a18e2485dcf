package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{New(CodeValidation, "bad input"), http.StatusBadRequest},
		{NotFound("missing"), http.StatusNotFound},
		{Conflict(CodeSessionNotActive, "not active"), http.StatusConflict},
		{Conflict(CodeDebtNotPending, "settled"), http.StatusConflict},
		{Conflict(CodeShiftAlreadyOpen, "open"), http.StatusConflict},
		{NoApplicableRule("no rule"), http.StatusInternalServerError},
		{Persistence("tx failed"), http.StatusInternalServerError},
		{ExternalService("gateway down"), http.StatusBadGateway},
		{NewValidation(map[string]string{"plate": "required"}), http.StatusUnprocessableEntity},
		{errors.New("anything else"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Status(tc.err), "error: %v", tc.err)
	}
}

func TestStatusUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("settle: %w", Conflict(CodeDebtNotPending, "already settled"))
	assert.Equal(t, http.StatusConflict, Status(wrapped))
}
