// Package service implements the verification-request lifecycle: create with
// a short shareable code, read with passive expiry projection, and a strictly
// single-use pending to terminal finalization.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"

	"proof-gateway/internal/platform/audit"
	"proof-gateway/internal/platform/config"
	"proof-gateway/internal/platform/metrics"
	"proof-gateway/internal/request/models"
	"proof-gateway/internal/request/sharecode"
	"proof-gateway/internal/request/store"
	verificationmodels "proof-gateway/internal/verification/models"
	dErrors "proof-gateway/pkg/domain-errors"
	"proof-gateway/pkg/platform/sentinel"
)

// codeAlphabet excludes ambiguous characters so codes survive being read
// aloud or typed from a screen.
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 8
)

// createRetries bounds code-collision retries at creation time.
const createRetries = 3

// Gateway is the proof verification capability requests delegate to.
type Gateway interface {
	Verify(ctx context.Context, in verificationmodels.VerifyInput) (*verificationmodels.VerifyResult, error)
}

// Service orchestrates verification requests.
type Service struct {
	store   store.Store
	gateway Gateway
	shares  *sharecode.Service
	metrics *metrics.Metrics
	audit   audit.Publisher
	logger  *slog.Logger
	now     func() time.Time

	// locks serializes in-process Complete calls per request id, and is held
	// across the gateway call on purpose: two racing submissions for the same
	// request would otherwise both reach the gateway and burn two nullifiers
	// for one request. The scope is a single request id in this process; the
	// store's conditional update remains authoritative across processes, and
	// the gateway's own ledger path takes no lock. Entries are refcounted and
	// evicted once the last waiter releases them.
	mu    sync.Mutex
	locks map[uuid.UUID]*requestLock
}

type requestLock struct {
	mu   sync.Mutex
	refs int
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(p audit.Publisher) Option {
	return func(s *Service) { s.audit = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(st store.Store, gateway Gateway, shares *sharecode.Service, logger *slog.Logger, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("request store is required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("verification gateway is required")
	}

	s := &Service{
		store:   st,
		gateway: gateway,
		shares:  shares,
		audit:   audit.Noop{},
		logger:  logger,
		now:     time.Now,
		locks:   make(map[uuid.UUID]*requestLock),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create opens a pending request bound to one verification type. The type
// cannot be substituted later by the prover.
func (s *Service) Create(ctx context.Context, in models.CreateInput) (*models.CreateResult, error) {
	if !in.Type.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown verification type %q", in.Type))
	}
	if in.VerifierName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "verifier name is required")
	}

	now := s.now()
	req := &models.VerificationRequest{
		ID:           uuid.New(),
		Type:         in.Type,
		VerifierName: in.VerifierName,
		Status:       models.StatusPending,
		CreatedAt:    now,
		ExpiresAt:    now.Add(config.RequestTTL),
	}

	var err error
	for attempt := 0; attempt < createRetries; attempt++ {
		req.Code, err = newCode()
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate request code")
		}
		err = s.store.Create(ctx, req)
		if err == nil {
			break
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create verification request")
		}
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate a unique request code")
	}

	shareable := req.Code
	if s.shares != nil {
		shareable, err = s.shares.Generate(req.ID, string(req.Type), req.Code, req.ExpiresAt)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign share code")
		}
	}

	if s.metrics != nil {
		s.metrics.IncrementRequestsCreated()
	}
	s.audit.Publish(ctx, audit.Event{
		Action:    audit.ActionRequestCreated,
		Subject:   req.Code,
		Timestamp: now,
		RequestID: req.ID.String(),
		Metadata:  map[string]string{"type": string(req.Type), "verifier": req.VerifierName},
	})

	return &models.CreateResult{
		RequestID:     req.ID,
		Code:          req.Code,
		ShareableCode: shareable,
		ExpiresAt:     req.ExpiresAt,
	}, nil
}

// Get returns the request with its status projected against the clock: a
// pending request past its TTL reads as expired without any write.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.VerificationRequest, error) {
	req, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "verification request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification request")
	}
	req.Status = req.EffectiveStatus(s.now())
	return req, nil
}

// ResolveShareCode validates a signed share token and returns the request it
// names, projected like Get.
func (s *Service) ResolveShareCode(ctx context.Context, token string) (*models.VerificationRequest, error) {
	if s.shares == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "share codes are not enabled")
	}
	claims, err := s.shares.Validate(token)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(claims.RequestID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid share code")
	}
	return s.Get(ctx, id)
}

// ListPending returns a verifier's open requests, newest first.
func (s *Service) ListPending(ctx context.Context, verifierName string) ([]*models.VerificationRequest, error) {
	if verifierName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "verifier name is required")
	}
	reqs, err := s.store.ListPending(ctx, verifierName, s.now())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending requests")
	}
	return reqs, nil
}

// Complete finalizes a pending request with a proof submission. The request's
// own bound type is used for verification regardless of what the submitter
// claims. Exactly one Complete call can succeed per request; all later calls
// observe AlreadyFinalized.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, proof string, publicSignals []string, nullifier string) (*models.CompleteResult, error) {
	lock := s.lockFor(id)
	lock.mu.Lock()
	defer s.releaseLock(id, lock)

	req, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "verification request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification request")
	}

	now := s.now()
	if req.Status.Terminal() {
		return nil, dErrors.New(dErrors.CodeAlreadyFinalized,
			fmt.Sprintf("request is already %s", req.Status))
	}
	if now.After(req.ExpiresAt) {
		// Record the expiry the read-side projection already reports.
		if err := s.finalize(ctx, req, models.StatusExpired, "", now); err != nil {
			return nil, err
		}
		return nil, dErrors.New(dErrors.CodeRequestExpired, "verification request has expired")
	}

	result, err := s.gateway.Verify(ctx, verificationmodels.VerifyInput{
		Type:          req.Type,
		Proof:         proof,
		PublicSignals: publicSignals,
		Nullifier:     nullifier,
	})
	if err != nil {
		// A replayed nullifier or an infrastructure failure is not an outcome
		// of this request; it stays pending and can be retried with a fresh
		// proof until it expires.
		return nil, err
	}

	status := models.StatusCompleted
	if !result.Verified {
		status = models.StatusFailed
	}
	if err := s.finalize(ctx, req, status, result.VerificationID, s.now()); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementRequestsFinalized(string(status))
	}
	s.audit.Publish(ctx, audit.Event{
		Action:    audit.ActionRequestFinalized,
		Subject:   req.Code,
		Timestamp: s.now(),
		RequestID: req.ID.String(),
		Metadata:  map[string]string{"type": string(req.Type), "status": string(status)},
	})

	return &models.CompleteResult{
		RequestID:      req.ID,
		Status:         status,
		Verified:       result.Verified,
		Attribute:      result.Attribute,
		VerificationID: result.VerificationID,
	}, nil
}

func (s *Service) finalize(ctx context.Context, req *models.VerificationRequest, status models.Status, verificationID string, at time.Time) error {
	err := s.store.Finalize(ctx, req.ID, status, verificationID, at)
	if err == nil {
		return nil
	}
	if errors.Is(err, sentinel.ErrInvalidState) {
		// Another process finalized it between our read and this write.
		return dErrors.New(dErrors.CodeAlreadyFinalized, "request has already been finalized")
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "verification request not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to finalize verification request")
}

func (s *Service) lockFor(id uuid.UUID) *requestLock {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &requestLock{}
		s.locks[id] = lock
	}
	lock.refs++
	return lock
}

func (s *Service) releaseLock(id uuid.UUID, lock *requestLock) {
	lock.mu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(s.locks, id)
	}
}

func newCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, codeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
