package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoris/STPark-sub000/internal/apierror"
	"github.com/jmoris/STPark-sub000/internal/dto"
	"github.com/jmoris/STPark-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestShift(t *testing.T, svc ShiftService, operatorID uuid.UUID, openingFloat string) *dto.ShiftResponse {
	t.Helper()
	resp, err := svc.Open(context.Background(), dto.OpenShiftRequest{
		OperatorID:   operatorID.String(),
		OpeningFloat: dec(openingFloat),
	})
	require.NoError(t, err)
	return resp
}

func TestOpenShiftRejectsSecondOpen(t *testing.T) {
	repo := newFakeShiftRepo()
	svc := NewShiftService(repo, nil)
	operatorID := uuid.New()

	openTestShift(t, svc, operatorID, "10000")

	_, err := svc.Open(context.Background(), dto.OpenShiftRequest{
		OperatorID:   operatorID.String(),
		OpeningFloat: dec("5000"),
	})
	var apiErr *apierror.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, apierror.CodeShiftAlreadyOpen, apiErr.Code)

	// A different operator is unaffected.
	_, err = svc.Open(context.Background(), dto.OpenShiftRequest{
		OperatorID:   uuid.NewString(),
		OpeningFloat: dec("5000"),
	})
	assert.NoError(t, err)
}

func TestShiftBlindCloseComputesOverShort(t *testing.T) {
	repo := newFakeShiftRepo()
	svc := NewShiftService(repo, nil)
	operatorID := uuid.New()

	opened := openTestShift(t, svc, operatorID, "10000")
	shiftID := uuid.MustParse(opened.ID)

	require.NoError(t, svc.RecordAdjustment(context.Background(), shiftID, operatorID, dto.ShiftAdjustmentRequest{
		Type:   model.OperationDeposit,
		Amount: dec("500"),
		Reason: "change fund top-up",
	}))
	require.NoError(t, svc.RecordAdjustment(context.Background(), shiftID, operatorID, dto.ShiftAdjustmentRequest{
		Type:   model.OperationWithdrawal,
		Amount: dec("2000"),
		Reason: "bank deposit run",
	}))

	closed, err := svc.Close(context.Background(), shiftID, operatorID, dto.CloseShiftRequest{
		ClosingDeclaredCash: dec("8300"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.ShiftClosed, closed.Status)
	assert.Equal(t, "8500", closed.Totals.ExpectedCash.String())
	require.NotNil(t, closed.CashOverShort)
	assert.Equal(t, "-200", closed.CashOverShort.String())
}

func TestShiftTotalsCountOnlyCashPayments(t *testing.T) {
	repo := newFakeShiftRepo()
	svc := NewShiftService(repo, nil)
	operatorID := uuid.New()

	opened := openTestShift(t, svc, operatorID, "1000")
	shiftID := uuid.MustParse(opened.ID)

	cash := model.MethodCash
	card := model.MethodCard
	require.NoError(t, repo.CreateOperationTx(nil, &model.ShiftOperation{
		ShiftID: shiftID, Kind: model.OperationPayment, Method: &cash, Amount: dec("3000"),
	}))
	// Card money never enters the drawer.
	require.NoError(t, repo.CreateOperationTx(nil, &model.ShiftOperation{
		ShiftID: shiftID, Kind: model.OperationPayment, Method: &card, Amount: dec("9999"),
	}))

	current, err := svc.Get(context.Background(), shiftID)
	require.NoError(t, err)
	assert.Equal(t, "3000", current.Totals.CashCollected.String())
	assert.Equal(t, "4000", current.Totals.ExpectedCash.String())
}

func TestWithdrawalsStoredNegative(t *testing.T) {
	repo := newFakeShiftRepo()
	svc := NewShiftService(repo, nil)
	operatorID := uuid.New()

	opened := openTestShift(t, svc, operatorID, "5000")
	shiftID := uuid.MustParse(opened.ID)

	require.NoError(t, svc.RecordAdjustment(context.Background(), shiftID, operatorID, dto.ShiftAdjustmentRequest{
		Type:   model.OperationWithdrawal,
		Amount: dec("1500"),
		Reason: "cash pickup",
	}))

	require.Len(t, repo.operations, 1)
	assert.Equal(t, "-1500", repo.operations[0].Amount.String())
	// The adjustment record itself keeps the positive figure the operator
	// typed.
	require.Len(t, repo.adjustments, 1)
	assert.Equal(t, "1500", repo.adjustments[0].Amount.String())
}

func TestAdjustmentOnClosedShiftConflicts(t *testing.T) {
	repo := newFakeShiftRepo()
	svc := NewShiftService(repo, nil)
	operatorID := uuid.New()

	opened := openTestShift(t, svc, operatorID, "1000")
	shiftID := uuid.MustParse(opened.ID)
	_, err := svc.Close(context.Background(), shiftID, operatorID, dto.CloseShiftRequest{
		ClosingDeclaredCash: dec("1000"),
	})
	require.NoError(t, err)

	err = svc.RecordAdjustment(context.Background(), shiftID, operatorID, dto.ShiftAdjustmentRequest{
		Type:   model.OperationDeposit,
		Amount: dec("100"),
		Reason: "too late",
	})
	var apiErr *apierror.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, apierror.CodeShiftNotOpen, apiErr.Code)
}

func TestCloseTwiceConflicts(t *testing.T) {
	repo := newFakeShiftRepo()
	svc := NewShiftService(repo, nil)
	operatorID := uuid.New()

	opened := openTestShift(t, svc, operatorID, "1000")
	shiftID := uuid.MustParse(opened.ID)
	req := dto.CloseShiftRequest{ClosingDeclaredCash: dec("1000")}

	_, err := svc.Close(context.Background(), shiftID, operatorID, req)
	require.NoError(t, err)

	_, err = svc.Close(context.Background(), shiftID, operatorID, req)
	var apiErr *apierror.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, apierror.CodeShiftNotOpen, apiErr.Code)
}

func TestCancelShiftWithActivityConflicts(t *testing.T) {
	repo := newFakeShiftRepo()
	svc := NewShiftService(repo, nil)
	operatorID := uuid.New()

	opened := openTestShift(t, svc, operatorID, "1000")
	shiftID := uuid.MustParse(opened.ID)
	require.NoError(t, svc.RecordAdjustment(context.Background(), shiftID, operatorID, dto.ShiftAdjustmentRequest{
		Type:   model.OperationDeposit,
		Amount: dec("100"),
		Reason: "change fund",
	}))

	_, err := svc.Cancel(context.Background(), shiftID)
	var apiErr *apierror.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, apierror.CodeShiftHasActivity, apiErr.Code)
}

func TestCancelEmptyShift(t *testing.T) {
	repo := newFakeShiftRepo()
	svc := NewShiftService(repo, nil)
	operatorID := uuid.New()

	opened := openTestShift(t, svc, operatorID, "1000")
	resp, err := svc.Cancel(context.Background(), uuid.MustParse(opened.ID))
	require.NoError(t, err)
	assert.Equal(t, model.ShiftCanceled, resp.Status)
}

func TestCurrentWithoutOpenShift(t *testing.T) {
	svc := NewShiftService(newFakeShiftRepo(), nil)

	_, err := svc.Current(context.Background(), uuid.New(), nil)
	var apiErr *apierror.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, apierror.CodeNoShiftOpen, apiErr.Code)
}
