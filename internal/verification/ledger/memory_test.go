package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"proof-gateway/internal/verification/models"
	"proof-gateway/pkg/platform/sentinel"
)

type LedgerSuite struct {
	suite.Suite
	ledger *InMemory
	ctx    context.Context
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupTest() {
	s.ledger = NewInMemory()
	s.ctx = context.Background()
}

func (s *LedgerSuite) record(nullifier string, typ models.Type, tookMs int64) *models.Verification {
	return &models.Verification{
		ID:                 uuid.New(),
		Type:               typ,
		Nullifier:          nullifier,
		VerifiedAt:         time.Now(),
		VerificationTimeMs: tookMs,
		Result:             true,
	}
}

func (s *LedgerSuite) TestAppendAndExists() {
	s.Require().NoError(s.ledger.Append(s.ctx, s.record("n-1", models.TypeAge, 40)))

	exists, err := s.ledger.Exists(s.ctx, "n-1")
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.ledger.Exists(s.ctx, "n-2")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *LedgerSuite) TestDuplicateNullifierConflicts() {
	s.Require().NoError(s.ledger.Append(s.ctx, s.record("n-1", models.TypeAge, 40)))

	err := s.ledger.Append(s.ctx, s.record("n-1", models.TypeRegion, 55))
	s.Require().ErrorIs(err, sentinel.ErrConflict)

	records, err := s.ledger.List(s.ctx, 10, 0)
	s.Require().NoError(err)
	s.Len(records, 1, "a conflicting append must not write a second row")
}

func (s *LedgerSuite) TestListNewestFirstWithPagination() {
	for i := 0; i < 5; i++ {
		s.Require().NoError(s.ledger.Append(s.ctx, s.record(fmt.Sprintf("n-%d", i), models.TypeAge, 10)))
	}

	first, err := s.ledger.List(s.ctx, 2, 0)
	s.Require().NoError(err)
	s.Require().Len(first, 2)
	s.Equal("n-4", first[0].Nullifier)
	s.Equal("n-3", first[1].Nullifier)

	second, err := s.ledger.List(s.ctx, 2, 2)
	s.Require().NoError(err)
	s.Require().Len(second, 2)
	s.Equal("n-2", second[0].Nullifier)

	past, err := s.ledger.List(s.ctx, 10, 5)
	s.Require().NoError(err)
	s.Empty(past)
}

func (s *LedgerSuite) TestAggregateByType() {
	s.Require().NoError(s.ledger.Append(s.ctx, s.record("a-1", models.TypeAge, 10)))
	s.Require().NoError(s.ledger.Append(s.ctx, s.record("a-2", models.TypeAge, 30)))
	s.Require().NoError(s.ledger.Append(s.ctx, s.record("r-1", models.TypeRegion, 50)))

	stats, err := s.ledger.AggregateByType(s.ctx)
	s.Require().NoError(err)

	s.Equal(int64(2), stats[models.TypeAge].Count)
	s.InDelta(20.0, stats[models.TypeAge].AvgVerifyTimeMs, 0.001)
	s.Equal(int64(1), stats[models.TypeRegion].Count)
	s.InDelta(1.0, stats[models.TypeRegion].SuccessRate, 0.001)
}
