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

func newSessionFixture() (SessionService, *fakeSessionRepo, uuid.UUID) {
	sectorID := uuid.New()
	pricing := &fakePricingRepo{
		profiles: []model.PricingProfile{
			activeProfile(sectorID, model.PricingRule{
				RuleType:    model.RuleTimeBased,
				PricePerMin: decPtr("100"),
			}),
		},
	}
	repo := newFakeSessionRepo()
	return NewSessionService(repo, NewQuoteService(pricing, nil, 0)), repo, sectorID
}

func TestCreateSessionStartsActive(t *testing.T) {
	svc, repo, sectorID := newSessionFixture()

	resp, err := svc.Create(context.Background(), uuid.New(), dto.CreateSessionRequest{
		Plate:    "ABCD12",
		SectorID: sectorID.String(),
		StreetID: uuid.NewString(),
	})
	require.NoError(t, err)
	assert.Equal(t, model.SessionActive, resp.Status)
	assert.Equal(t, "ABCD12", resp.Plate)

	stored, err := repo.FindActiveByPlate(context.Background(), "ABCD12")
	require.NoError(t, err)
	assert.Equal(t, resp.ID, stored.ID.String())
}

func TestQuoteIsRepeatable(t *testing.T) {
	svc, repo, sectorID := newSessionFixture()
	session := sessionStartedAt(sectorID, monday)
	require.NoError(t, repo.Create(context.Background(), session))
	endedAt := monday.Add(30 * time.Minute)

	first, err := svc.Quote(context.Background(), session.ID, &endedAt, "")
	require.NoError(t, err)
	second, err := svc.Quote(context.Background(), session.ID, &endedAt, "")
	require.NoError(t, err)

	// Same inputs, same amount — and the session is untouched.
	assert.True(t, first.Amount.Equal(second.Amount))
	stored, err := repo.FindByID(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionActive, stored.Status)
}

func TestQuoteOnCompletedSessionConflicts(t *testing.T) {
	svc, repo, sectorID := newSessionFixture()
	session := sessionStartedAt(sectorID, monday)
	session.Status = model.SessionCompleted
	require.NoError(t, repo.Create(context.Background(), session))

	_, err := svc.Quote(context.Background(), session.ID, nil, "")
	var apiErr *apierror.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, apierror.CodeSessionNotActive, apiErr.Code)
}

func TestCancelSessionIsTerminal(t *testing.T) {
	svc, repo, sectorID := newSessionFixture()
	session := sessionStartedAt(sectorID, monday)
	require.NoError(t, repo.Create(context.Background(), session))
	operatorID := uuid.New()

	resp, err := svc.Cancel(context.Background(), session.ID, operatorID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionCanceled, resp.Status)
	assert.Nil(t, resp.FinalAmount)
	require.NotNil(t, resp.EndedAt)

	// Cancel is one-way: a second attempt conflicts.
	_, err = svc.Cancel(context.Background(), session.ID, operatorID)
	var apiErr *apierror.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, apierror.CodeSessionNotActive, apiErr.Code)
}

func TestGetUnknownSessionNotFound(t *testing.T) {
	svc, _, _ := newSessionFixture()

	_, err := svc.Get(context.Background(), uuid.New())
	var apiErr *apierror.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, apierror.CodeNotFound, apiErr.Code)
}
