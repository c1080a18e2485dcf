package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoris/STPark-sub000/internal/dto"
	"github.com/jmoris/STPark-sub000/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// ShiftReportRenderer produces the cash reconciliation PDF attached to the
// back-office mail after a shift closes.
type ShiftReportRenderer struct {
	storagePath string
}

func NewShiftReportRenderer(storagePath string) *ShiftReportRenderer {
	return &ShiftReportRenderer{storagePath: storagePath}
}

// Render writes the report to disk and returns its path.
func (r *ShiftReportRenderer) Render(shift *model.Shift, totals dto.ShiftTotals, ops []model.ShiftOperation) (string, error) {
	if err := os.MkdirAll(r.storagePath, 0o755); err != nil {
		return "", err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Shift Cash Reconciliation")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	r.line(pdf, "Shift", shift.ID.String())
	r.line(pdf, "Operator", shift.OperatorID.String())
	if shift.DeviceID != nil {
		r.line(pdf, "Device", *shift.DeviceID)
	}
	r.line(pdf, "Opened", shift.OpenedAt.UTC().Format(time.RFC3339))
	if shift.ClosedAt != nil {
		r.line(pdf, "Closed", shift.ClosedAt.UTC().Format(time.RFC3339))
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Totals")
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 10)
	r.amountLine(pdf, "Opening float", totals.OpeningFloat)
	r.amountLine(pdf, "Cash collected", totals.CashCollected)
	r.amountLine(pdf, "Deposits", totals.CashDeposits)
	r.amountLine(pdf, "Withdrawals", totals.CashWithdrawals.Neg())
	r.amountLine(pdf, "Expected cash", totals.ExpectedCash)
	if shift.DeclaredCash != nil {
		r.amountLine(pdf, "Declared cash", *shift.DeclaredCash)
	}
	if shift.CashOverShort != nil {
		r.amountLine(pdf, "Over / short", *shift.CashOverShort)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Operations")
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(40, 7, "Time", "1", 0, "", false, 0, "")
	pdf.CellFormat(30, 7, "Kind", "1", 0, "", false, 0, "")
	pdf.CellFormat(30, 7, "Amount", "1", 0, "R", false, 0, "")
	pdf.CellFormat(90, 7, "Description", "1", 1, "", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for _, op := range ops {
		pdf.CellFormat(40, 6, op.CreatedAt.UTC().Format("2006-01-02 15:04"), "1", 0, "", false, 0, "")
		pdf.CellFormat(30, 6, op.Kind, "1", 0, "", false, 0, "")
		pdf.CellFormat(30, 6, op.Amount.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(90, 6, op.Description, "1", 1, "", false, 0, "")
	}

	path := filepath.Join(r.storagePath, fmt.Sprintf("shift-%s.pdf", shift.ID))
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", err
	}
	return path, nil
}

func (r *ShiftReportRenderer) line(pdf *fpdf.Fpdf, label, value string) {
	pdf.CellFormat(40, 6, label, "", 0, "", false, 0, "")
	pdf.CellFormat(0, 6, value, "", 1, "", false, 0, "")
}

func (r *ShiftReportRenderer) amountLine(pdf *fpdf.Fpdf, label string, amount decimal.Decimal) {
	pdf.CellFormat(40, 6, label, "", 0, "", false, 0, "")
	pdf.CellFormat(0, 6, amount.StringFixed(2), "", 1, "", false, 0, "")
}
