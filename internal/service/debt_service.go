package service

import (
	"context"
	"errors"
	"time"

	"github.com/jmoris/STPark-sub000/internal/apierror"
	"github.com/jmoris/STPark-sub000/internal/dto"
	"github.com/jmoris/STPark-sub000/internal/model"
	"github.com/jmoris/STPark-sub000/internal/repository"
	"github.com/jmoris/STPark-sub000/internal/tenancy"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DebtService interface {
	// CreateManual is the back-office entry point (fines, adjustments) —
	// session debts are created by the settlement orchestrator.
	CreateManual(ctx context.Context, req dto.CreateDebtRequest) (*dto.DebtResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.DebtResponse, error)
	ListByPlate(ctx context.Context, plate, status string) ([]dto.DebtResponse, error)
	// Settle succeeds at most once per debt: the PENDING check runs under a
	// row lock inside the transaction.
	Settle(ctx context.Context, debtID uuid.UUID, req dto.SettleDebtRequest) (*dto.DebtResponse, error)
}

type debtService struct {
	repo     repository.DebtRepository
	payments repository.PaymentRepository
	shifts   repository.ShiftRepository
}

func NewDebtService(repo repository.DebtRepository, payments repository.PaymentRepository, shifts repository.ShiftRepository) DebtService {
	return &debtService{repo: repo, payments: payments, shifts: shifts}
}

func (s *debtService) CreateManual(ctx context.Context, req dto.CreateDebtRequest) (*dto.DebtResponse, error) {
	debt := &model.Debt{
		TenantID:        tenancy.FromContext(ctx),
		Plate:           req.Plate,
		PrincipalAmount: req.Amount,
		Origin:          req.Origin,
		Status:          model.DebtPending,
		Notes:           req.Notes,
	}
	if err := s.repo.Create(ctx, debt); err != nil {
		return nil, apierror.Persistence("failed to create debt")
	}
	return debtToResponse(debt), nil
}

func (s *debtService) Get(ctx context.Context, id uuid.UUID) (*dto.DebtResponse, error) {
	debt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("debt not found")
	}
	return debtToResponse(debt), nil
}

func (s *debtService) ListByPlate(ctx context.Context, plate, status string) ([]dto.DebtResponse, error) {
	debts, err := s.repo.ListByPlate(ctx, plate, status)
	if err != nil {
		return nil, apierror.Persistence("failed to list debts")
	}
	out := make([]dto.DebtResponse, 0, len(debts))
	for i := range debts {
		out = append(out, *debtToResponse(&debts[i]))
	}
	return out, nil
}

func (s *debtService) Settle(ctx context.Context, debtID uuid.UUID, req dto.SettleDebtRequest) (*dto.DebtResponse, error) {
	cashierID, err := uuid.Parse(req.CashierOperatorID)
	if err != nil {
		return nil, apierror.New(apierror.CodeValidation, "invalid cashier_operator_id")
	}

	// Cashier's open shift, if any — cash lands in its drawer.
	openShift, err := s.shifts.FindOpenByOperator(ctx, cashierID, nil)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.Persistence("failed to resolve open shift")
	}

	var debt *model.Debt
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		debt, err = s.repo.FindByIDForUpdateTx(tx, debtID)
		if err != nil {
			return apierror.NotFound("debt not found")
		}
		if debt.Status != model.DebtPending {
			return apierror.Conflict(apierror.CodeDebtNotPending, "debt is not pending")
		}

		// Re-check the drawer under lock so a concurrently closed shift never
		// receives the settlement row.
		shift := lockOpenShift(tx, s.shifts, openShift)

		payment := &model.Payment{
			TenantID:   tenancy.FromContext(ctx),
			DebtID:     &debt.ID,
			OperatorID: cashierID,
			Method:     req.Method,
			Status:     model.PaymentApproved,
			Amount:     req.Amount,
		}
		if shift != nil {
			payment.ShiftID = &shift.ID
		}
		if err := s.payments.CreateTx(tx, payment); err != nil {
			return apierror.Persistence("failed to record payment")
		}

		if shift != nil {
			method := req.Method
			op := &model.ShiftOperation{
				ShiftID:     shift.ID,
				Kind:        model.OperationPayment,
				Method:      &method,
				Amount:      req.Amount,
				Description: "debt settlement " + debt.Plate,
				ReferenceID: &payment.ID,
			}
			if err := s.shifts.CreateOperationTx(tx, op); err != nil {
				return apierror.Persistence("failed to record shift operation")
			}
		}

		now := time.Now().UTC()
		amount := req.Amount
		debt.Status = model.DebtSettled
		debt.SettledAmount = &amount
		debt.SettledAt = &now
		debt.SettledBy = &cashierID
		return s.repo.UpdateTx(tx, debt)
	})
	if txErr != nil {
		return nil, txErr
	}
	return debtToResponse(debt), nil
}

func debtToResponse(d *model.Debt) *dto.DebtResponse {
	resp := &dto.DebtResponse{
		ID:              d.ID.String(),
		Plate:           d.Plate,
		PrincipalAmount: d.PrincipalAmount,
		Origin:          d.Origin,
		Status:          d.Status,
		Notes:           d.Notes,
		SettledAmount:   d.SettledAmount,
		CreatedAt:       d.CreatedAt.UTC().Format(time.RFC3339),
	}
	if d.SessionID != nil {
		id := d.SessionID.String()
		resp.SessionID = &id
	}
	if d.SettledAt != nil {
		t := d.SettledAt.UTC().Format(time.RFC3339)
		resp.SettledAt = &t
	}
	return resp
}
