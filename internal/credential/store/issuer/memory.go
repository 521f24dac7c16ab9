package issuer

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"proof-gateway/internal/credential/models"
	"proof-gateway/pkg/platform/sentinel"
)

// InMemory keeps issuers in process memory for tests and single-node runs.
type InMemory struct {
	mu      sync.RWMutex
	issuers map[uuid.UUID]*models.Issuer
}

func NewInMemory() *InMemory {
	return &InMemory{issuers: make(map[uuid.UUID]*models.Issuer)}
}

func (s *InMemory) Create(_ context.Context, issuer *models.Issuer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.issuers[issuer.ID]; ok {
		return sentinel.ErrConflict
	}
	cp := *issuer
	s.issuers[issuer.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.Issuer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if issuer, ok := s.issuers[id]; ok {
		cp := *issuer
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListActive(_ context.Context) ([]*models.Issuer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Issuer
	for _, issuer := range s.issuers {
		if issuer.Active {
			cp := *issuer
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	issuer, ok := s.issuers[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	issuer.Active = active
	return nil
}
