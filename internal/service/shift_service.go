package service

import (
	"context"
	"time"

	"github.com/jmoris/STPark-sub000/internal/apierror"
	"github.com/jmoris/STPark-sub000/internal/dto"
	"github.com/jmoris/STPark-sub000/internal/model"
	"github.com/jmoris/STPark-sub000/internal/repository"
	"github.com/jmoris/STPark-sub000/internal/tenancy"
	"github.com/jmoris/STPark-sub000/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ShiftService tracks an operator's cash drawer across a work shift.
type ShiftService interface {
	Open(ctx context.Context, req dto.OpenShiftRequest) (*dto.ShiftResponse, error)
	Current(ctx context.Context, operatorID uuid.UUID, deviceID *string) (*dto.ShiftResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ShiftResponse, error)
	Operations(ctx context.Context, id uuid.UUID) ([]dto.ShiftOperationResponse, error)
	RecordAdjustment(ctx context.Context, shiftID, operatorID uuid.UUID, req dto.ShiftAdjustmentRequest) error
	// Close is a blind count: the declared cash arrives before expected totals
	// are revealed, and over/short is computed server-side.
	Close(ctx context.Context, shiftID, closerID uuid.UUID, req dto.CloseShiftRequest) (*dto.ShiftResponse, error)
	// Cancel voids an OPEN shift that has no monetary operations yet.
	Cancel(ctx context.Context, shiftID uuid.UUID) (*dto.ShiftResponse, error)
}

type shiftService struct {
	repo       repository.ShiftRepository
	dispatcher *worker.Dispatcher
}

// NewShiftService creates the reconciler. dispatcher may be nil (unit-test
// mode) — close reports are then skipped.
func NewShiftService(repo repository.ShiftRepository, dispatcher *worker.Dispatcher) ShiftService {
	return &shiftService{repo: repo, dispatcher: dispatcher}
}

func (s *shiftService) Open(ctx context.Context, req dto.OpenShiftRequest) (*dto.ShiftResponse, error) {
	operatorID, err := uuid.Parse(req.OperatorID)
	if err != nil {
		return nil, apierror.New(apierror.CodeValidation, "invalid operator_id")
	}

	// Guard: at most one OPEN shift per operator (+device). The partial unique
	// index backs this check against races.
	if existing, err := s.repo.FindOpenByOperator(ctx, operatorID, req.DeviceID); err == nil && existing != nil {
		return nil, apierror.Conflict(apierror.CodeShiftAlreadyOpen, "an open shift already exists for this operator")
	}

	shift := &model.Shift{
		TenantID:     tenancy.FromContext(ctx),
		OperatorID:   operatorID,
		DeviceID:     req.DeviceID,
		OpeningFloat: req.OpeningFloat,
		Status:       model.ShiftOpen,
		OpenedAt:     time.Now().UTC(),
	}
	if req.SectorID != nil {
		sectorID, err := uuid.Parse(*req.SectorID)
		if err != nil {
			return nil, apierror.New(apierror.CodeValidation, "invalid sector_id")
		}
		shift.SectorID = &sectorID
	}
	if err := s.repo.Create(ctx, shift); err != nil {
		return nil, apierror.Persistence("failed to open shift")
	}
	return s.buildResponse(ctx, shift)
}

func (s *shiftService) Current(ctx context.Context, operatorID uuid.UUID, deviceID *string) (*dto.ShiftResponse, error) {
	shift, err := s.repo.FindOpenByOperator(ctx, operatorID, deviceID)
	if err != nil || shift == nil {
		return nil, apierror.Conflict(apierror.CodeNoShiftOpen, "no open shift for this operator")
	}
	return s.buildResponse(ctx, shift)
}

func (s *shiftService) Get(ctx context.Context, id uuid.UUID) (*dto.ShiftResponse, error) {
	shift, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("shift not found")
	}
	return s.buildResponse(ctx, shift)
}

func (s *shiftService) Operations(ctx context.Context, id uuid.UUID) ([]dto.ShiftOperationResponse, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, apierror.NotFound("shift not found")
	}
	ops, err := s.repo.ListOperations(ctx, id)
	if err != nil {
		return nil, apierror.Persistence("failed to list operations")
	}
	out := make([]dto.ShiftOperationResponse, 0, len(ops))
	for _, op := range ops {
		out = append(out, dto.ShiftOperationResponse{
			ID:          op.ID.String(),
			Kind:        op.Kind,
			Method:      op.Method,
			Amount:      op.Amount,
			Description: op.Description,
			CreatedAt:   op.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out, nil
}

// RecordAdjustment appends a manual withdrawal/deposit. Withdrawals are stored
// negative so ledger sums stay plain additions. Ledger rows are immutable —
// corrections create inverse entries.
func (s *shiftService) RecordAdjustment(ctx context.Context, shiftID, operatorID uuid.UUID, req dto.ShiftAdjustmentRequest) error {
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		shift, err := s.repo.FindByIDForUpdateTx(tx, shiftID)
		if err != nil {
			return apierror.NotFound("shift not found")
		}
		if shift.Status != model.ShiftOpen {
			return apierror.Conflict(apierror.CodeShiftNotOpen, "shift is not open")
		}

		amount := req.Amount
		if req.Type == model.OperationWithdrawal {
			amount = req.Amount.Neg()
		}

		adj := &model.CashAdjustment{
			ShiftID:    shiftID,
			OperatorID: operatorID,
			Kind:       req.Type,
			Amount:     req.Amount,
			Reason:     req.Reason,
		}
		if err := s.repo.CreateAdjustmentTx(tx, adj); err != nil {
			return apierror.Persistence("failed to record adjustment")
		}

		method := model.MethodCash
		op := &model.ShiftOperation{
			ShiftID:     shiftID,
			Kind:        req.Type,
			Method:      &method,
			Amount:      amount,
			Description: req.Reason,
			ReferenceID: &adj.ID,
		}
		if err := s.repo.CreateOperationTx(tx, op); err != nil {
			return apierror.Persistence("failed to record shift operation")
		}
		return nil
	})
}

func (s *shiftService) Close(ctx context.Context, shiftID, closerID uuid.UUID, req dto.CloseShiftRequest) (*dto.ShiftResponse, error) {
	var shift *model.Shift
	var totals dto.ShiftTotals

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		shift, err = s.repo.FindByIDForUpdateTx(tx, shiftID)
		if err != nil {
			return apierror.NotFound("shift not found")
		}
		if shift.Status != model.ShiftOpen {
			return apierror.Conflict(apierror.CodeShiftNotOpen, "shift is not open")
		}

		totals, err = s.calculateTotals(ctx, shift)
		if err != nil {
			return apierror.Persistence("failed to compute totals")
		}

		declared := req.ClosingDeclaredCash
		overShort := declared.Sub(totals.ExpectedCash)
		now := time.Now().UTC()

		shift.ExpectedCash = &totals.ExpectedCash
		shift.DeclaredCash = &declared
		shift.CashOverShort = &overShort
		shift.Status = model.ShiftClosed
		shift.Notes = req.Notes
		shift.ClosedBy = &closerID
		shift.ClosedAt = &now
		return s.repo.UpdateTx(tx, shift)
	})
	if txErr != nil {
		return nil, txErr
	}

	// Best-effort close report for the back office — outside the transaction.
	// The worker runs on a background context, so the tenant scope travels in
	// the payload.
	if s.dispatcher != nil {
		payload := map[string]interface{}{
			"shift_id":  shift.ID.String(),
			"tenant_id": tenancy.FromContext(ctx),
		}
		if err := s.dispatcher.EnqueueShiftReport(ctx, payload); err != nil {
			log.Warn().Err(err).Str("shift_id", shift.ID.String()).Msg("failed to enqueue shift report")
		}
	}

	return s.responseWithTotals(shift, totals), nil
}

func (s *shiftService) Cancel(ctx context.Context, shiftID uuid.UUID) (*dto.ShiftResponse, error) {
	var shift *model.Shift
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		shift, err = s.repo.FindByIDForUpdateTx(tx, shiftID)
		if err != nil {
			return apierror.NotFound("shift not found")
		}
		if shift.Status != model.ShiftOpen {
			return apierror.Conflict(apierror.CodeShiftNotOpen, "shift is not open")
		}
		n, err := s.repo.CountOperations(ctx, shiftID)
		if err != nil {
			return apierror.Persistence("failed to inspect shift ledger")
		}
		if n > 0 {
			return apierror.Conflict(apierror.CodeShiftHasActivity, "shift has recorded operations and cannot be canceled")
		}
		now := time.Now().UTC()
		shift.Status = model.ShiftCanceled
		shift.ClosedAt = &now
		return s.repo.UpdateTx(tx, shift)
	})
	if txErr != nil {
		return nil, txErr
	}
	return s.buildResponse(ctx, shift)
}

// calculateTotals derives the drawer state from the append-only ledger without
// mutating anything: expected = opening float + cash payments + deposits −
// withdrawals.
func (s *shiftService) calculateTotals(ctx context.Context, shift *model.Shift) (dto.ShiftTotals, error) {
	sums, err := s.repo.SumOperations(ctx, shift.ID)
	if err != nil {
		return dto.ShiftTotals{}, err
	}
	expected := shift.OpeningFloat.
		Add(sums.CashPayments).
		Add(sums.Deposits).
		Add(sums.Withdrawals) // stored negative
	return dto.ShiftTotals{
		OpeningFloat:    shift.OpeningFloat,
		CashCollected:   sums.CashPayments,
		CashDeposits:    sums.Deposits,
		CashWithdrawals: sums.Withdrawals.Neg(),
		ExpectedCash:    expected,
	}, nil
}

func (s *shiftService) buildResponse(ctx context.Context, shift *model.Shift) (*dto.ShiftResponse, error) {
	totals, err := s.calculateTotals(ctx, shift)
	if err != nil {
		return nil, apierror.Persistence("failed to compute totals")
	}
	return s.responseWithTotals(shift, totals), nil
}

func (s *shiftService) responseWithTotals(shift *model.Shift, totals dto.ShiftTotals) *dto.ShiftResponse {
	resp := &dto.ShiftResponse{
		ID:            shift.ID.String(),
		OperatorID:    shift.OperatorID.String(),
		DeviceID:      shift.DeviceID,
		Status:        shift.Status,
		Totals:        totals,
		DeclaredCash:  shift.DeclaredCash,
		CashOverShort: shift.CashOverShort,
		Notes:         shift.Notes,
		OpenedAt:      shift.OpenedAt.UTC().Format(time.RFC3339),
	}
	if shift.SectorID != nil {
		id := shift.SectorID.String()
		resp.SectorID = &id
	}
	if shift.ClosedAt != nil {
		t := shift.ClosedAt.UTC().Format(time.RFC3339)
		resp.ClosedAt = &t
	}
	return resp
}
