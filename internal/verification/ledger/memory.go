package ledger

import (
	"context"
	"sync"

	"proof-gateway/internal/verification/models"
	"proof-gateway/pkg/platform/sentinel"
)

// InMemory keeps the ledger in process memory. The mutex makes the
// check-then-append in Append atomic per nullifier, mirroring the unique
// constraint the Postgres implementation relies on.
type InMemory struct {
	mu      sync.RWMutex
	byNull  map[string]*models.Verification
	ordered []*models.Verification
}

func NewInMemory() *InMemory {
	return &InMemory{byNull: make(map[string]*models.Verification)}
}

func (s *InMemory) Exists(_ context.Context, nullifier string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byNull[nullifier]
	return ok, nil
}

func (s *InMemory) Append(_ context.Context, v *models.Verification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byNull[v.Nullifier]; ok {
		return sentinel.ErrConflict
	}
	cp := *v
	s.byNull[v.Nullifier] = &cp
	s.ordered = append(s.ordered, &cp)
	return nil
}

func (s *InMemory) List(_ context.Context, limit, offset int) ([]*models.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.ordered)
	out := make([]*models.Verification, 0, limit)
	// ordered holds oldest-first; walk backwards for recency-descending.
	for i := n - 1 - offset; i >= 0 && len(out) < limit; i-- {
		cp := *s.ordered[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemory) AggregateByType(_ context.Context) (map[models.Type]models.TypeStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sums := make(map[models.Type]int64)
	counts := make(map[models.Type]int64)
	for _, v := range s.ordered {
		counts[v.Type]++
		sums[v.Type] += v.VerificationTimeMs
	}

	out := make(map[models.Type]models.TypeStats, len(counts))
	for typ, count := range counts {
		out[typ] = models.TypeStats{
			Count:           count,
			SuccessRate:     1, // the ledger records accepted verifications only
			AvgVerifyTimeMs: float64(sums[typ]) / float64(count),
		}
	}
	return out, nil
}
