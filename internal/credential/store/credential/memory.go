package credential

import (
	"context"
	"sync"

	"proof-gateway/internal/credential/models"
	"proof-gateway/pkg/platform/sentinel"
)

// InMemory keeps credentials in process memory. The mutex makes duplicate
// commitment detection atomic, mirroring the Postgres unique constraint.
type InMemory struct {
	mu           sync.RWMutex
	byCommitment map[string]*models.Credential
}

func NewInMemory() *InMemory {
	return &InMemory{byCommitment: make(map[string]*models.Credential)}
}

func (s *InMemory) Create(_ context.Context, cred *models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byCommitment[cred.Commitment]; ok {
		return sentinel.ErrConflict
	}
	cp := *cred
	s.byCommitment[cred.Commitment] = &cp
	return nil
}

func (s *InMemory) FindByCommitment(_ context.Context, commitment string) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cred, ok := s.byCommitment[commitment]; ok {
		cp := *cred
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Revoke(_ context.Context, commitment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.byCommitment[commitment]
	if !ok {
		return sentinel.ErrNotFound
	}
	cred.Revoked = true
	return nil
}
