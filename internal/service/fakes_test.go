package service

import (
	"context"
	"sort"
	"time"

	"github.com/jmoris/STPark-sub000/internal/model"
	"github.com/jmoris/STPark-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory fakes. DB() returns nil so runTx invokes the callback without a
// real transaction.

// ── pricing ───────────────────────────────────────────────────────────────────

type fakePricingRepo struct {
	profiles  []model.PricingProfile
	discounts []model.SessionDiscount
	// discountErr simulates a storage failure on code lookup.
	discountErr error
}

var _ repository.PricingRepository = (*fakePricingRepo)(nil)

func (f *fakePricingRepo) ActiveProfilesForSector(_ context.Context, sectorID uuid.UUID, at time.Time) ([]model.PricingProfile, error) {
	var out []model.PricingProfile
	for _, p := range f.profiles {
		if p.SectorID != sectorID || !p.IsActive {
			continue
		}
		if p.ActiveFrom != nil && at.Before(*p.ActiveFrom) {
			continue
		}
		if p.ActiveTo != nil && at.After(*p.ActiveTo) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePricingRepo) ActiveDiscounts(_ context.Context, at time.Time) ([]model.SessionDiscount, error) {
	var out []model.SessionDiscount
	for _, d := range f.discounts {
		if !d.IsActive {
			continue
		}
		if d.ValidFrom != nil && at.Before(*d.ValidFrom) {
			continue
		}
		if d.ValidUntil != nil && at.After(*d.ValidUntil) {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (f *fakePricingRepo) FindDiscountByCode(_ context.Context, code string) (*model.SessionDiscount, error) {
	if f.discountErr != nil {
		return nil, f.discountErr
	}
	for i := range f.discounts {
		if f.discounts[i].Code == code {
			d := f.discounts[i]
			return &d, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── sessions ──────────────────────────────────────────────────────────────────

type fakeSessionRepo struct {
	sessions map[uuid.UUID]*model.ParkingSession
}

var _ repository.SessionRepository = (*fakeSessionRepo)(nil)

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]*model.ParkingSession)}
}

func (f *fakeSessionRepo) DB() *gorm.DB { return nil }

func (f *fakeSessionRepo) Create(_ context.Context, s *model.ParkingSession) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.ParkingSession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessionRepo) FindActiveByPlate(_ context.Context, plate string) (*model.ParkingSession, error) {
	for _, s := range f.sessions {
		if s.Plate == plate && s.Status == model.SessionActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSessionRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.ParkingSession, error) {
	return f.FindByID(context.Background(), id)
}

func (f *fakeSessionRepo) UpdateTx(_ *gorm.DB, s *model.ParkingSession) error {
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

// ── payments ──────────────────────────────────────────────────────────────────

type fakePaymentRepo struct {
	payments []*model.Payment
}

var _ repository.PaymentRepository = (*fakePaymentRepo)(nil)

func (f *fakePaymentRepo) CreateTx(_ *gorm.DB, p *model.Payment) error {
	if p.ProviderTxID != nil {
		for _, existing := range f.payments {
			if existing.ProviderTxID != nil && *existing.ProviderTxID == *p.ProviderTxID {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	f.payments = append(f.payments, &cp)
	return nil
}

func (f *fakePaymentRepo) FindByProviderTxID(_ context.Context, txID string) (*model.Payment, error) {
	for _, p := range f.payments {
		if p.ProviderTxID != nil && *p.ProviderTxID == txID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePaymentRepo) ListBySession(_ context.Context, sessionID uuid.UUID) ([]model.Payment, error) {
	var out []model.Payment
	for _, p := range f.payments {
		if p.SessionID != nil && *p.SessionID == sessionID {
			out = append(out, *p)
		}
	}
	return out, nil
}

// ── debts ─────────────────────────────────────────────────────────────────────

type fakeDebtRepo struct {
	debts map[uuid.UUID]*model.Debt
}

var _ repository.DebtRepository = (*fakeDebtRepo)(nil)

func newFakeDebtRepo() *fakeDebtRepo {
	return &fakeDebtRepo{debts: make(map[uuid.UUID]*model.Debt)}
}

func (f *fakeDebtRepo) DB() *gorm.DB { return nil }

func (f *fakeDebtRepo) Create(_ context.Context, d *model.Debt) error {
	return f.CreateTx(nil, d)
}

func (f *fakeDebtRepo) CreateTx(_ *gorm.DB, d *model.Debt) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	cp := *d
	f.debts[d.ID] = &cp
	return nil
}

func (f *fakeDebtRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Debt, error) {
	d, ok := f.debts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDebtRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Debt, error) {
	return f.FindByID(context.Background(), id)
}

func (f *fakeDebtRepo) UpdateTx(_ *gorm.DB, d *model.Debt) error {
	cp := *d
	f.debts[d.ID] = &cp
	return nil
}

func (f *fakeDebtRepo) ListByPlate(_ context.Context, plate, status string) ([]model.Debt, error) {
	var out []model.Debt
	for _, d := range f.debts {
		if d.Plate != plate {
			continue
		}
		if status != "" && d.Status != status {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

// ── shifts ────────────────────────────────────────────────────────────────────

type fakeShiftRepo struct {
	shifts      map[uuid.UUID]*model.Shift
	operations  []*model.ShiftOperation
	adjustments []*model.CashAdjustment
	// onLock runs against the stored shift when a caller takes its row lock,
	// simulating a concurrent writer that committed first.
	onLock func(s *model.Shift)
	// findOpenErr simulates a storage failure on the open-shift lookup.
	findOpenErr error
}

var _ repository.ShiftRepository = (*fakeShiftRepo)(nil)

func newFakeShiftRepo() *fakeShiftRepo {
	return &fakeShiftRepo{shifts: make(map[uuid.UUID]*model.Shift)}
}

func (f *fakeShiftRepo) DB() *gorm.DB { return nil }

func (f *fakeShiftRepo) Create(_ context.Context, s *model.Shift) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := *s
	f.shifts[s.ID] = &cp
	return nil
}

func (f *fakeShiftRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Shift, error) {
	s, ok := f.shifts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeShiftRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Shift, error) {
	if f.onLock != nil {
		if s, ok := f.shifts[id]; ok {
			f.onLock(s)
		}
	}
	return f.FindByID(context.Background(), id)
}

func (f *fakeShiftRepo) FindOpenByOperator(_ context.Context, operatorID uuid.UUID, deviceID *string) (*model.Shift, error) {
	if f.findOpenErr != nil {
		return nil, f.findOpenErr
	}
	for _, s := range f.shifts {
		if s.OperatorID != operatorID || s.Status != model.ShiftOpen {
			continue
		}
		if deviceID != nil && (s.DeviceID == nil || *s.DeviceID != *deviceID) {
			continue
		}
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeShiftRepo) UpdateTx(_ *gorm.DB, s *model.Shift) error {
	cp := *s
	f.shifts[s.ID] = &cp
	return nil
}

func (f *fakeShiftRepo) CreateOperationTx(_ *gorm.DB, op *model.ShiftOperation) error {
	if op.ID == uuid.Nil {
		op.ID = uuid.New()
	}
	op.CreatedAt = time.Now().UTC()
	cp := *op
	f.operations = append(f.operations, &cp)
	return nil
}

func (f *fakeShiftRepo) CreateAdjustmentTx(_ *gorm.DB, adj *model.CashAdjustment) error {
	if adj.ID == uuid.Nil {
		adj.ID = uuid.New()
	}
	cp := *adj
	f.adjustments = append(f.adjustments, &cp)
	return nil
}

func (f *fakeShiftRepo) ListOperations(_ context.Context, shiftID uuid.UUID) ([]model.ShiftOperation, error) {
	var out []model.ShiftOperation
	for _, op := range f.operations {
		if op.ShiftID == shiftID {
			out = append(out, *op)
		}
	}
	return out, nil
}

func (f *fakeShiftRepo) SumOperations(_ context.Context, shiftID uuid.UUID) (repository.ShiftSums, error) {
	sums := repository.ShiftSums{
		CashPayments: decimal.Zero,
		Deposits:     decimal.Zero,
		Withdrawals:  decimal.Zero,
	}
	for _, op := range f.operations {
		if op.ShiftID != shiftID {
			continue
		}
		switch op.Kind {
		case model.OperationPayment:
			if op.Method != nil && *op.Method == model.MethodCash {
				sums.CashPayments = sums.CashPayments.Add(op.Amount)
			}
		case model.OperationDeposit:
			sums.Deposits = sums.Deposits.Add(op.Amount)
		case model.OperationWithdrawal:
			sums.Withdrawals = sums.Withdrawals.Add(op.Amount)
		}
	}
	return sums, nil
}

func (f *fakeShiftRepo) CountOperations(_ context.Context, shiftID uuid.UUID) (int64, error) {
	var n int64
	for _, op := range f.operations {
		if op.ShiftID == shiftID {
			n++
		}
	}
	return n, nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func intPtr(i int) *int { return &i }

func strPtr(s string) *string { return &s }
