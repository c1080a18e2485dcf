package service

import (
	"context"
	"time"

	"github.com/jmoris/STPark-sub000/internal/apierror"
	"github.com/jmoris/STPark-sub000/internal/dto"
	"github.com/jmoris/STPark-sub000/internal/model"
	"github.com/jmoris/STPark-sub000/internal/repository"
	"github.com/jmoris/STPark-sub000/internal/tenancy"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionService interface {
	Create(ctx context.Context, operatorID uuid.UUID, req dto.CreateSessionRequest) (*dto.SessionResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.SessionResponse, error)
	FindActiveByPlate(ctx context.Context, plate string) (*dto.SessionResponse, error)
	// Quote is read-only and may be requested any number of times while ACTIVE.
	Quote(ctx context.Context, id uuid.UUID, endedAt *time.Time, discountCode string) (*dto.QuoteResponse, error)
	Cancel(ctx context.Context, id uuid.UUID, operatorID uuid.UUID) (*dto.SessionResponse, error)
}

type sessionService struct {
	repo  repository.SessionRepository
	quote QuoteService
}

func NewSessionService(repo repository.SessionRepository, quote QuoteService) SessionService {
	return &sessionService{repo: repo, quote: quote}
}

func (s *sessionService) Create(ctx context.Context, operatorID uuid.UUID, req dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	sectorID, err := uuid.Parse(req.SectorID)
	if err != nil {
		return nil, apierror.New(apierror.CodeValidation, "invalid sector_id")
	}
	streetID, err := uuid.Parse(req.StreetID)
	if err != nil {
		return nil, apierror.New(apierror.CodeValidation, "invalid street_id")
	}

	session := &model.ParkingSession{
		TenantID:        tenancy.FromContext(ctx),
		Plate:           req.Plate,
		SectorID:        sectorID,
		StreetID:        streetID,
		EntryOperatorID: operatorID,
		Status:          model.SessionActive,
		StartedAt:       time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, apierror.Persistence("failed to create session")
	}
	return sessionToResponse(session), nil
}

func (s *sessionService) Get(ctx context.Context, id uuid.UUID) (*dto.SessionResponse, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("session not found")
	}
	return sessionToResponse(session), nil
}

func (s *sessionService) FindActiveByPlate(ctx context.Context, plate string) (*dto.SessionResponse, error) {
	session, err := s.repo.FindActiveByPlate(ctx, plate)
	if err != nil {
		return nil, apierror.NotFound("no active session for plate")
	}
	return sessionToResponse(session), nil
}

func (s *sessionService) Quote(ctx context.Context, id uuid.UUID, endedAt *time.Time, discountCode string) (*dto.QuoteResponse, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("session not found")
	}
	if session.Status != model.SessionActive {
		return nil, apierror.Conflict(apierror.CodeSessionNotActive, "session is not active")
	}
	at := time.Now().UTC()
	if endedAt != nil {
		at = endedAt.UTC()
	}
	return s.quote.QuoteSession(ctx, session, at, discountCode)
}

// Cancel ends the session with no charge and no debt. Terminal.
func (s *sessionService) Cancel(ctx context.Context, id uuid.UUID, operatorID uuid.UUID) (*dto.SessionResponse, error) {
	var session *model.ParkingSession
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		session, err = s.repo.FindByIDForUpdateTx(tx, id)
		if err != nil {
			return apierror.NotFound("session not found")
		}
		if session.Status != model.SessionActive {
			return apierror.Conflict(apierror.CodeSessionNotActive, "session is not active")
		}
		now := time.Now().UTC()
		session.Status = model.SessionCanceled
		session.EndedAt = &now
		session.ExitOperatorID = &operatorID
		return s.repo.UpdateTx(tx, session)
	})
	if txErr != nil {
		return nil, txErr
	}
	return sessionToResponse(session), nil
}

func sessionToResponse(s *model.ParkingSession) *dto.SessionResponse {
	resp := &dto.SessionResponse{
		ID:          s.ID.String(),
		Plate:       s.Plate,
		SectorID:    s.SectorID.String(),
		StreetID:    s.StreetID.String(),
		Status:      s.Status,
		StartedAt:   s.StartedAt.UTC().Format(time.RFC3339),
		FinalAmount: s.FinalAmount,
	}
	if s.EndedAt != nil {
		t := s.EndedAt.UTC().Format(time.RFC3339)
		resp.EndedAt = &t
	}
	for _, p := range s.Payments {
		resp.Payments = append(resp.Payments, *paymentToResponse(&p))
	}
	return resp
}

func paymentToResponse(p *model.Payment) *dto.PaymentResponse {
	return &dto.PaymentResponse{
		ID:          p.ID.String(),
		Method:      p.Method,
		Status:      p.Status,
		Amount:      p.Amount,
		ProviderRef: p.ProviderRef,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
	}
}
