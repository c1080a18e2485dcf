package service

import (
	"context"
	"errors"
	"time"

	"github.com/jmoris/STPark-sub000/internal/apierror"
	"github.com/jmoris/STPark-sub000/internal/dto"
	"github.com/jmoris/STPark-sub000/internal/infra"
	"github.com/jmoris/STPark-sub000/internal/model"
	"github.com/jmoris/STPark-sub000/internal/repository"
	"github.com/jmoris/STPark-sub000/internal/tenancy"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CheckoutService is the settlement orchestrator: the transaction boundary
// combining session, quote, payment, debt and shift effects for one checkout.
type CheckoutService interface {
	Checkout(ctx context.Context, sessionID, operatorID uuid.UUID, req dto.CheckoutRequest) (*dto.SessionResponse, error)
	// ForceCheckout completes the session and books a PENDING debt instead of
	// a payment — used when the vehicle leaves without paying.
	ForceCheckout(ctx context.Context, sessionID, operatorID uuid.UUID, req dto.ForceCheckoutRequest) (*dto.SessionResponse, error)
	// InitiateCharge starts an electronic charge with the gateway for the
	// session's current quote. The session stays ACTIVE until the gateway's
	// confirmation arrives at the payment webhook.
	InitiateCharge(ctx context.Context, sessionID uuid.UUID, req dto.InitiateChargeRequest) (*dto.ChargeResponse, error)
	// HandleProviderCallback processes asynchronous gateway confirmations,
	// idempotent by provider transaction id.
	HandleProviderCallback(ctx context.Context, req dto.PaymentWebhookRequest) (*dto.PaymentResponse, error)
}

// PaymentGateway starts electronic charges with the card gateway sidecar.
type PaymentGateway interface {
	CreateCharge(ctx context.Context, req infra.ChargeRequest) (*infra.ChargeResponse, error)
}

type checkoutService struct {
	sessions repository.SessionRepository
	payments repository.PaymentRepository
	debts    repository.DebtRepository
	shifts   repository.ShiftRepository
	quote    QuoteService
	gateway  PaymentGateway
}

func NewCheckoutService(
	sessions repository.SessionRepository,
	payments repository.PaymentRepository,
	debts repository.DebtRepository,
	shifts repository.ShiftRepository,
	quote QuoteService,
	gateway PaymentGateway,
) CheckoutService {
	return &checkoutService{
		sessions: sessions,
		payments: payments,
		debts:    debts,
		shifts:   shifts,
		quote:    quote,
		gateway:  gateway,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// lockOpenShift re-reads candidate under a row lock and returns it only while
// it is still OPEN. A shift closed between the pre-flight lookup and the
// transaction drops off: its ledger is sealed.
func lockOpenShift(tx *gorm.DB, shifts repository.ShiftRepository, candidate *model.Shift) *model.Shift {
	if candidate == nil {
		return nil
	}
	locked, err := shifts.FindByIDForUpdateTx(tx, candidate.ID)
	if err != nil || locked.Status != model.ShiftOpen {
		return nil
	}
	return locked
}

// Checkout settles an active session against a collected payment.
// All effects commit atomically; a timed-out or failed checkout leaves the
// session ACTIVE.
func (s *checkoutService) Checkout(ctx context.Context, sessionID, operatorID uuid.UUID, req dto.CheckoutRequest) (*dto.SessionResponse, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, apierror.NotFound("session not found")
	}
	if session.Status != model.SessionActive {
		return nil, apierror.Conflict(apierror.CodeSessionNotActive, "session is not active")
	}

	endedAt := time.Now().UTC()
	if req.EndedAt != nil {
		endedAt = req.EndedAt.UTC()
	}

	// Quote is a pure read — computed before the write transaction.
	quote, err := s.quote.QuoteSession(ctx, session, endedAt, "")
	if err != nil {
		return nil, err
	}
	if req.Amount.LessThan(quote.Amount) {
		return nil, apierror.New(apierror.CodeValidation, "amount does not cover the quoted total")
	}

	// Collecting operator's open shift, if any — payment lands in its drawer.
	openShift, err := s.shifts.FindOpenByOperator(ctx, operatorID, nil)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.Persistence("failed to resolve open shift")
	}

	txErr := runTx(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
		locked, err := s.sessions.FindByIDForUpdateTx(tx, sessionID)
		if err != nil {
			return apierror.NotFound("session not found")
		}
		if locked.Status != model.SessionActive {
			return apierror.Conflict(apierror.CodeSessionNotActive, "session is not active")
		}

		// Re-check the drawer under lock: a concurrent close wins and the
		// payment then books without a shift link, never onto a terminal
		// ledger.
		shift := lockOpenShift(tx, s.shifts, openShift)

		payment := &model.Payment{
			TenantID:   tenancy.FromContext(ctx),
			SessionID:  &locked.ID,
			OperatorID: operatorID,
			Method:     req.PaymentMethod,
			Status:     model.PaymentApproved,
			Amount:     req.Amount,
		}
		if shift != nil {
			payment.ShiftID = &shift.ID
		}
		if err := s.payments.CreateTx(tx, payment); err != nil {
			return apierror.Persistence("failed to record payment")
		}

		locked.Status = model.SessionCompleted
		locked.EndedAt = &endedAt
		locked.ExitOperatorID = &operatorID
		locked.FinalAmount = &quote.Amount
		if err := s.sessions.UpdateTx(tx, locked); err != nil {
			return apierror.Persistence("failed to complete session")
		}

		if shift != nil {
			method := req.PaymentMethod
			op := &model.ShiftOperation{
				ShiftID:     shift.ID,
				Kind:        model.OperationPayment,
				Method:      &method,
				Amount:      req.Amount,
				Description: "parking session " + locked.Plate,
				ReferenceID: &payment.ID,
			}
			if err := s.shifts.CreateOperationTx(tx, op); err != nil {
				return apierror.Persistence("failed to record shift operation")
			}
		}

		session = locked
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return sessionToResponse(session), nil
}

func (s *checkoutService) ForceCheckout(ctx context.Context, sessionID, operatorID uuid.UUID, req dto.ForceCheckoutRequest) (*dto.SessionResponse, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, apierror.NotFound("session not found")
	}
	if session.Status != model.SessionActive {
		return nil, apierror.Conflict(apierror.CodeSessionNotActive, "session is not active")
	}

	endedAt := time.Now().UTC()
	if req.EndedAt != nil {
		endedAt = req.EndedAt.UTC()
	}

	quote, err := s.quote.QuoteSession(ctx, session, endedAt, "")
	if err != nil {
		return nil, err
	}

	txErr := runTx(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
		locked, err := s.sessions.FindByIDForUpdateTx(tx, sessionID)
		if err != nil {
			return apierror.NotFound("session not found")
		}
		if locked.Status != model.SessionActive {
			return apierror.Conflict(apierror.CodeSessionNotActive, "session is not active")
		}

		locked.Status = model.SessionCompleted
		locked.EndedAt = &endedAt
		locked.ExitOperatorID = &operatorID
		locked.FinalAmount = &quote.Amount
		if err := s.sessions.UpdateTx(tx, locked); err != nil {
			return apierror.Persistence("failed to complete session")
		}

		debt := &model.Debt{
			TenantID:        tenancy.FromContext(ctx),
			Plate:           locked.Plate,
			PrincipalAmount: quote.Amount,
			Origin:          model.DebtOriginSession,
			Status:          model.DebtPending,
			SessionID:       &locked.ID,
		}
		if err := s.debts.CreateTx(tx, debt); err != nil {
			return apierror.Persistence("failed to record debt")
		}

		session = locked
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return sessionToResponse(session), nil
}

// InitiateCharge quotes the session and asks the gateway to start the charge.
// Nothing is written: settlement happens when the confirmation webhook lands.
func (s *checkoutService) InitiateCharge(ctx context.Context, sessionID uuid.UUID, req dto.InitiateChargeRequest) (*dto.ChargeResponse, error) {
	if s.gateway == nil {
		return nil, apierror.ExternalService("payment gateway is not configured")
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, apierror.NotFound("session not found")
	}
	if session.Status != model.SessionActive {
		return nil, apierror.Conflict(apierror.CodeSessionNotActive, "session is not active")
	}

	endedAt := time.Now().UTC()
	if req.EndedAt != nil {
		endedAt = req.EndedAt.UTC()
	}
	quote, err := s.quote.QuoteSession(ctx, session, endedAt, "")
	if err != nil {
		return nil, err
	}

	charge, err := s.gateway.CreateCharge(ctx, infra.ChargeRequest{
		SessionID: session.ID.String(),
		Amount:    quote.Amount,
		Method:    req.Method,
	})
	if err != nil {
		if errors.Is(err, infra.ErrCircuitOpen) {
			return nil, apierror.ExternalService("payment gateway unavailable")
		}
		return nil, apierror.ExternalService("charge initiation failed")
	}

	return &dto.ChargeResponse{
		TransactionID: charge.TransactionID,
		RedirectURL:   charge.RedirectURL,
		Amount:        quote.Amount,
		Status:        charge.Status,
	}, nil
}

// HandleProviderCallback is replay-safe: the provider transaction id carries a
// unique index, and a confirmation already on file short-circuits before any
// write. A rejected confirmation records a FAILED payment and leaves the
// session untouched.
func (s *checkoutService) HandleProviderCallback(ctx context.Context, req dto.PaymentWebhookRequest) (*dto.PaymentResponse, error) {
	if existing, err := s.payments.FindByProviderTxID(ctx, req.TransactionID); err == nil && existing != nil {
		return paymentToResponse(existing), nil
	}

	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return nil, apierror.New(apierror.CodeValidation, "invalid session_id")
	}
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, apierror.NotFound("session not found")
	}

	providerTxID := req.TransactionID
	providerRef := req.ProviderRef
	payment := &model.Payment{
		TenantID:     tenancy.FromContext(ctx),
		SessionID:    &session.ID,
		OperatorID:   session.EntryOperatorID,
		Method:       model.MethodWebpay,
		Amount:       req.Amount,
		ProviderTxID: &providerTxID,
	}
	if providerRef != "" {
		payment.ProviderRef = &providerRef
	}

	if req.Status != "approved" {
		payment.Status = model.PaymentFailed
		txErr := runTx(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
			return s.payments.CreateTx(tx, payment)
		})
		if txErr != nil {
			return nil, apierror.Persistence("failed to record failed payment")
		}
		return paymentToResponse(payment), nil
	}

	payment.Status = model.PaymentApproved
	txErr := runTx(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
		locked, err := s.sessions.FindByIDForUpdateTx(tx, sessionID)
		if err != nil {
			return apierror.NotFound("session not found")
		}
		switch locked.Status {
		case model.SessionCanceled:
			return apierror.Conflict(apierror.CodeSessionNotActive, "session was canceled")
		case model.SessionCompleted:
			// Money arrived for an already-settled session: book the payment,
			// never re-transition.
			return s.payments.CreateTx(tx, payment)
		}

		if err := s.payments.CreateTx(tx, payment); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apierror.Conflict(apierror.CodeConflict, "confirmation already processed")
			}
			return apierror.Persistence("failed to record payment")
		}

		now := time.Now().UTC()
		amount := req.Amount
		locked.Status = model.SessionCompleted
		locked.EndedAt = &now
		locked.FinalAmount = &amount
		return s.sessions.UpdateTx(tx, locked)
	})
	if txErr != nil {
		return nil, txErr
	}
	return paymentToResponse(payment), nil
}
