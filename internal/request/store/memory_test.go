package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"proof-gateway/internal/request/models"
	verificationmodels "proof-gateway/internal/verification/models"
	"proof-gateway/pkg/platform/sentinel"
)

type RequestStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func TestRequestStoreSuite(t *testing.T) {
	suite.Run(t, new(RequestStoreSuite))
}

func (s *RequestStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *RequestStoreSuite) newRequest(code string) *models.VerificationRequest {
	return &models.VerificationRequest{
		ID:           uuid.New(),
		Code:         code,
		Type:         verificationmodels.TypeAge,
		VerifierName: "acme-bank",
		Status:       models.StatusPending,
		CreatedAt:    s.now,
		ExpiresAt:    s.now.Add(10 * time.Minute),
	}
}

func (s *RequestStoreSuite) TestCreateAndLookups() {
	req := s.newRequest("AAAABBBB")
	s.Require().NoError(s.store.Create(s.ctx, req))

	byID, err := s.store.FindByID(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(req.Code, byID.Code)

	byCode, err := s.store.FindByCode(s.ctx, "AAAABBBB")
	s.Require().NoError(err)
	s.Equal(req.ID, byCode.ID)

	_, err = s.store.FindByID(s.ctx, uuid.New())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RequestStoreSuite) TestDuplicateCodeConflicts() {
	s.Require().NoError(s.store.Create(s.ctx, s.newRequest("SAMECODE")))
	err := s.store.Create(s.ctx, s.newRequest("SAMECODE"))
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *RequestStoreSuite) TestFinalizeIsSingleUse() {
	req := s.newRequest("AAAABBBB")
	s.Require().NoError(s.store.Create(s.ctx, req))

	s.Require().NoError(s.store.Finalize(s.ctx, req.ID, models.StatusCompleted, "verif-1", s.now))

	stored, err := s.store.FindByID(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusCompleted, stored.Status)
	s.Equal("verif-1", stored.VerificationID)
	s.Require().NotNil(stored.FinalizedAt)

	err = s.store.Finalize(s.ctx, req.ID, models.StatusFailed, "", s.now)
	s.Require().ErrorIs(err, sentinel.ErrInvalidState)

	unchanged, err := s.store.FindByID(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusCompleted, unchanged.Status)
}

func (s *RequestStoreSuite) TestFinalizeUnknownRequest() {
	err := s.store.Finalize(s.ctx, uuid.New(), models.StatusExpired, "", s.now)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RequestStoreSuite) TestListPending() {
	open := s.newRequest("OPEN1111")
	s.Require().NoError(s.store.Create(s.ctx, open))

	done := s.newRequest("DONE1111")
	s.Require().NoError(s.store.Create(s.ctx, done))
	s.Require().NoError(s.store.Finalize(s.ctx, done.ID, models.StatusCompleted, "v", s.now))

	stale := s.newRequest("STALE111")
	stale.ExpiresAt = s.now.Add(-time.Minute)
	s.Require().NoError(s.store.Create(s.ctx, stale))

	other := s.newRequest("OTHER111")
	other.VerifierName = "different-verifier"
	s.Require().NoError(s.store.Create(s.ctx, other))

	pending, err := s.store.ListPending(s.ctx, "acme-bank", s.now)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(open.ID, pending[0].ID)
}
