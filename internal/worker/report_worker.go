package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoris/STPark-sub000/internal/dto"
	"github.com/jmoris/STPark-sub000/internal/infra"
	"github.com/jmoris/STPark-sub000/internal/repository"
	"github.com/jmoris/STPark-sub000/internal/tenancy"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ReportWorker renders the shift close PDF and hands it off to the mail
// worker.
type ReportWorker struct {
	shifts       repository.ShiftRepository
	renderer     *infra.ShiftReportRenderer
	dispatcher   *Dispatcher
	backofficeTo string
}

func NewReportWorker(shifts repository.ShiftRepository, renderer *infra.ShiftReportRenderer, dispatcher *Dispatcher, backofficeTo string) *ReportWorker {
	return &ReportWorker{
		shifts:       shifts,
		renderer:     renderer,
		dispatcher:   dispatcher,
		backofficeTo: backofficeTo,
	}
}

type shiftReportPayload struct {
	ShiftID  string `json:"shift_id"`
	TenantID string `json:"tenant_id"`
}

// HandleShiftReport is the JobShiftReport handler.
func (w *ReportWorker) HandleShiftReport(ctx context.Context, job Job) error {
	var payload shiftReportPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	shiftID, err := uuid.Parse(payload.ShiftID)
	if err != nil {
		return fmt.Errorf("invalid shift_id %q", payload.ShiftID)
	}
	// The pool's context carries no request scope; restore the tenant the
	// shift was closed under or the repository lookups miss it.
	if payload.TenantID != "" {
		ctx = tenancy.WithTenant(ctx, payload.TenantID)
	}

	shift, err := w.shifts.FindByID(ctx, shiftID)
	if err != nil {
		return fmt.Errorf("load shift: %w", err)
	}
	ops, err := w.shifts.ListOperations(ctx, shiftID)
	if err != nil {
		return fmt.Errorf("load operations: %w", err)
	}
	sums, err := w.shifts.SumOperations(ctx, shiftID)
	if err != nil {
		return fmt.Errorf("sum operations: %w", err)
	}

	totals := dto.ShiftTotals{
		OpeningFloat:    shift.OpeningFloat,
		CashCollected:   sums.CashPayments,
		CashDeposits:    sums.Deposits,
		CashWithdrawals: sums.Withdrawals.Neg(),
		ExpectedCash:    shift.OpeningFloat.Add(sums.CashPayments).Add(sums.Deposits).Add(sums.Withdrawals),
	}

	path, err := w.renderer.Render(shift, totals, ops)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	log.Info().Str("shift_id", shiftID.String()).Str("path", path).Msg("shift report rendered")

	if w.backofficeTo == "" {
		return nil
	}
	mail := emailPayload{
		To:      []string{w.backofficeTo},
		Subject: fmt.Sprintf("Shift reconciliation %s", shiftID),
		HTML: fmt.Sprintf("<p>Shift <b>%s</b> closed. Expected %s, declared %s.</p>",
			shiftID, totals.ExpectedCash.StringFixed(2), declaredOrDash(shift.DeclaredCash)),
		Attachments: []string{path},
	}
	return w.dispatcher.EnqueueEmail(ctx, mail)
}

func declaredOrDash(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.StringFixed(2)
}
