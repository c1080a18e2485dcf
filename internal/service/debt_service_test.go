package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoris/STPark-sub000/internal/apierror"
	"github.com/jmoris/STPark-sub000/internal/dto"
	"github.com/jmoris/STPark-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateManualDebt(t *testing.T) {
	svc := NewDebtService(newFakeDebtRepo(), &fakePaymentRepo{}, newFakeShiftRepo())

	resp, err := svc.CreateManual(context.Background(), dto.CreateDebtRequest{
		Plate:  "ABCD12",
		Amount: dec("4500"),
		Origin: model.DebtOriginFine,
	})
	require.NoError(t, err)
	assert.Equal(t, model.DebtPending, resp.Status)
	assert.Equal(t, "4500", resp.PrincipalAmount.String())
	assert.Equal(t, model.DebtOriginFine, resp.Origin)
}

func TestSettleDebtSucceedsAtMostOnce(t *testing.T) {
	debts := newFakeDebtRepo()
	payments := &fakePaymentRepo{}
	shifts := newFakeShiftRepo()
	svc := NewDebtService(debts, payments, shifts)

	created, err := svc.CreateManual(context.Background(), dto.CreateDebtRequest{
		Plate:  "ABCD12",
		Amount: dec("3000"),
		Origin: model.DebtOriginManual,
	})
	require.NoError(t, err)
	debtID := uuid.MustParse(created.ID)
	cashierID := uuid.New()

	settled, err := svc.Settle(context.Background(), debtID, dto.SettleDebtRequest{
		Amount:            dec("3000"),
		Method:            model.MethodCash,
		CashierOperatorID: cashierID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, model.DebtSettled, settled.Status)
	require.NotNil(t, settled.SettledAmount)
	assert.Equal(t, "3000", settled.SettledAmount.String())
	require.Len(t, payments.payments, 1)
	require.NotNil(t, payments.payments[0].DebtID)
	assert.Equal(t, debtID, *payments.payments[0].DebtID)

	// The second settle observes SETTLED and loses.
	_, err = svc.Settle(context.Background(), debtID, dto.SettleDebtRequest{
		Amount:            dec("3000"),
		Method:            model.MethodCash,
		CashierOperatorID: cashierID.String(),
	})
	var apiErr *apierror.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, apierror.CodeDebtNotPending, apiErr.Code)
	assert.Len(t, payments.payments, 1)
}

func TestSettleCashLandsInOpenShift(t *testing.T) {
	debts := newFakeDebtRepo()
	payments := &fakePaymentRepo{}
	shifts := newFakeShiftRepo()
	svc := NewDebtService(debts, payments, shifts)

	cashierID := uuid.New()
	shift := &model.Shift{
		OperatorID:   cashierID,
		OpeningFloat: dec("5000"),
		Status:       model.ShiftOpen,
		OpenedAt:     time.Now().UTC(),
	}
	require.NoError(t, shifts.Create(context.Background(), shift))

	created, err := svc.CreateManual(context.Background(), dto.CreateDebtRequest{
		Plate:  "WXYZ34",
		Amount: dec("2000"),
		Origin: model.DebtOriginManual,
	})
	require.NoError(t, err)

	_, err = svc.Settle(context.Background(), uuid.MustParse(created.ID), dto.SettleDebtRequest{
		Amount:            dec("2000"),
		Method:            model.MethodCash,
		CashierOperatorID: cashierID.String(),
	})
	require.NoError(t, err)

	require.Len(t, payments.payments, 1)
	require.NotNil(t, payments.payments[0].ShiftID)
	assert.Equal(t, shift.ID, *payments.payments[0].ShiftID)
	require.Len(t, shifts.operations, 1)
	assert.Equal(t, model.OperationPayment, shifts.operations[0].Kind)
	assert.Equal(t, "2000", shifts.operations[0].Amount.String())
}

func TestSettleSkipsShiftClosedConcurrently(t *testing.T) {
	debts := newFakeDebtRepo()
	payments := &fakePaymentRepo{}
	shifts := newFakeShiftRepo()
	svc := NewDebtService(debts, payments, shifts)

	cashierID := uuid.New()
	shift := &model.Shift{
		OperatorID:   cashierID,
		OpeningFloat: dec("5000"),
		Status:       model.ShiftOpen,
		OpenedAt:     time.Now().UTC(),
	}
	require.NoError(t, shifts.Create(context.Background(), shift))

	created, err := svc.CreateManual(context.Background(), dto.CreateDebtRequest{
		Plate:  "WXYZ34",
		Amount: dec("2000"),
		Origin: model.DebtOriginManual,
	})
	require.NoError(t, err)

	// A supervisor closes the drawer between the pre-flight lookup and the
	// settlement transaction.
	shifts.onLock = func(s *model.Shift) {
		if s.ID == shift.ID {
			s.Status = model.ShiftClosed
		}
	}

	settled, err := svc.Settle(context.Background(), uuid.MustParse(created.ID), dto.SettleDebtRequest{
		Amount:            dec("2000"),
		Method:            model.MethodCash,
		CashierOperatorID: cashierID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, model.DebtSettled, settled.Status)

	// The settlement books without a drawer link; the sealed ledger gains
	// no rows.
	require.Len(t, payments.payments, 1)
	assert.Nil(t, payments.payments[0].ShiftID)
	assert.Empty(t, shifts.operations)
}

func TestSettleShiftLookupFailureAborts(t *testing.T) {
	debts := newFakeDebtRepo()
	payments := &fakePaymentRepo{}
	shifts := newFakeShiftRepo()
	svc := NewDebtService(debts, payments, shifts)

	created, err := svc.CreateManual(context.Background(), dto.CreateDebtRequest{
		Plate:  "WXYZ34",
		Amount: dec("2000"),
		Origin: model.DebtOriginManual,
	})
	require.NoError(t, err)
	shifts.findOpenErr = errors.New("connection refused")

	_, err = svc.Settle(context.Background(), uuid.MustParse(created.ID), dto.SettleDebtRequest{
		Amount:            dec("2000"),
		Method:            model.MethodCash,
		CashierOperatorID: uuid.NewString(),
	})
	var apiErr *apierror.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, apierror.CodePersistence, apiErr.Code)

	// Nothing moved: the debt is still collectible.
	stored, err := svc.Get(context.Background(), uuid.MustParse(created.ID))
	require.NoError(t, err)
	assert.Equal(t, model.DebtPending, stored.Status)
	assert.Empty(t, payments.payments)
}

func TestListDebtsByPlateFiltersStatus(t *testing.T) {
	debts := newFakeDebtRepo()
	svc := NewDebtService(debts, &fakePaymentRepo{}, newFakeShiftRepo())

	for _, status := range []string{model.DebtPending, model.DebtSettled} {
		require.NoError(t, debts.Create(context.Background(), &model.Debt{
			Plate:           "ABCD12",
			PrincipalAmount: dec("1000"),
			Origin:          model.DebtOriginManual,
			Status:          status,
		}))
	}

	pending, err := svc.ListByPlate(context.Background(), "ABCD12", model.DebtPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, model.DebtPending, pending[0].Status)

	all, err := svc.ListByPlate(context.Background(), "ABCD12", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
