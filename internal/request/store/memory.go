package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"proof-gateway/internal/request/models"
	"proof-gateway/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded request store for tests and single-node runs.
type InMemory struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]*models.VerificationRequest
	byCode map[string]uuid.UUID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:   make(map[uuid.UUID]*models.VerificationRequest),
		byCode: make(map[string]uuid.UUID),
	}
}

func (s *InMemory) Create(_ context.Context, req *models.VerificationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[req.ID]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.byCode[req.Code]; ok {
		return sentinel.ErrConflict
	}
	cp := *req
	s.byID[req.ID] = &cp
	s.byCode[req.Code] = req.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.VerificationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (s *InMemory) FindByCode(_ context.Context, code string) (*models.VerificationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byCode[code]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *InMemory) Finalize(_ context.Context, id uuid.UUID, status models.Status, verificationID string, finalizedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if req.Status != models.StatusPending {
		return sentinel.ErrInvalidState
	}
	req.Status = status
	req.VerificationID = verificationID
	req.FinalizedAt = &finalizedAt
	return nil
}

func (s *InMemory) ListPending(_ context.Context, verifierName string, now time.Time) ([]*models.VerificationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.VerificationRequest
	for _, req := range s.byID {
		if req.Status != models.StatusPending || req.VerifierName != verifierName {
			continue
		}
		if now.After(req.ExpiresAt) {
			continue
		}
		cp := *req
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
