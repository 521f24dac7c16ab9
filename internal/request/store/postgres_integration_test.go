//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"proof-gateway/internal/request/models"
	"proof-gateway/internal/request/store"
	verificationmodels "proof-gateway/internal/verification/models"
	"proof-gateway/pkg/platform/sentinel"
	"proof-gateway/pkg/testutil/containers"
)

type PostgresRequestStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresRequestStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresRequestStoreSuite))
}

func (s *PostgresRequestStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T(), store.Schema)
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresRequestStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "verification_requests"))
}

func newRequest(code string) *models.VerificationRequest {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &models.VerificationRequest{
		ID:           uuid.New(),
		Code:         code,
		Type:         verificationmodels.TypeAge,
		VerifierName: "acme-bank",
		Status:       models.StatusPending,
		CreatedAt:    now,
		ExpiresAt:    now.Add(10 * time.Minute),
	}
}

func (s *PostgresRequestStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	req := newRequest("AAAABBBB")
	s.Require().NoError(s.store.Create(ctx, req))

	found, err := s.store.FindByCode(ctx, "AAAABBBB")
	s.Require().NoError(err)
	s.Equal(req.ID, found.ID)
	s.Equal(models.StatusPending, found.Status)
	s.Nil(found.FinalizedAt)

	_, err = s.store.FindByID(ctx, uuid.New())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentFinalize drives the conditional UPDATE: many finalizers on
// one pending request, exactly one transition.
func (s *PostgresRequestStoreSuite) TestConcurrentFinalize() {
	ctx := context.Background()
	req := newRequest("RACE1234")
	s.Require().NoError(s.store.Create(ctx, req))

	const goroutines = 20
	var wg sync.WaitGroup
	var successCount, staleCount atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Finalize(ctx, req.ID, models.StatusCompleted, uuid.NewString(), time.Now().UTC())
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, sentinel.ErrInvalidState):
				staleCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one finalize should succeed")
	s.Equal(int32(goroutines-1), staleCount.Load())

	final, err := s.store.FindByID(ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusCompleted, final.Status)
	s.NotNil(final.FinalizedAt)
}

func (s *PostgresRequestStoreSuite) TestListPendingFiltersTerminalAndStale() {
	ctx := context.Background()
	now := time.Now().UTC()

	open := newRequest("OPEN1111")
	s.Require().NoError(s.store.Create(ctx, open))

	done := newRequest("DONE1111")
	s.Require().NoError(s.store.Create(ctx, done))
	s.Require().NoError(s.store.Finalize(ctx, done.ID, models.StatusFailed, "", now))

	stale := newRequest("STALE111")
	stale.ExpiresAt = now.Add(-time.Minute)
	s.Require().NoError(s.store.Create(ctx, stale))

	pending, err := s.store.ListPending(ctx, "acme-bank", now)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(open.ID, pending[0].ID)
}
