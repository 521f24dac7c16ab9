// Package service implements the proof verification gateway: it invokes the
// external verify capability, enforces nullifier uniqueness, and decides
// success per verification type.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"proof-gateway/internal/platform/audit"
	"proof-gateway/internal/platform/metrics"
	"proof-gateway/internal/verification/cache"
	"proof-gateway/internal/verification/ledger"
	"proof-gateway/internal/verification/models"
	"proof-gateway/internal/zkp"
	dErrors "proof-gateway/pkg/domain-errors"
	"proof-gateway/pkg/platform/sentinel"
)

// ProofVerifier is the external verify capability. It reports cryptographic
// validity only; predicate evaluation and replay protection happen here.
type ProofVerifier interface {
	Verify(ctx context.Context, circuit string, proof string, publicSignals []string) (bool, error)
}

// Service orchestrates one verification attempt end to end.
type Service struct {
	ledger   ledger.Ledger
	verifier ProofVerifier
	cache    cache.NullifierCache
	metrics  *metrics.Metrics
	audit    audit.Publisher
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Service)

func WithCache(c cache.NullifierCache) Option {
	return func(s *Service) { s.cache = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(p audit.Publisher) Option {
	return func(s *Service) { s.audit = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(lg ledger.Ledger, verifier ProofVerifier, logger *slog.Logger, opts ...Option) (*Service, error) {
	if lg == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	if verifier == nil {
		return nil, fmt.Errorf("proof verifier is required")
	}

	s := &Service{
		ledger:   lg,
		verifier: verifier,
		audit:    audit.Noop{},
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Verify runs the gateway sequence: fast-path replay check, external verify,
// predicate evaluation, success-only ledger append. No lock is held across
// the external call; the ledger's unique constraint closes the race window.
func (s *Service) Verify(ctx context.Context, in models.VerifyInput) (*models.VerifyResult, error) {
	start := s.now()

	if err := validateInput(in); err != nil {
		return nil, err
	}

	// Fast path: a consumed nullifier is rejected before the expensive
	// external call, with no new information leaked.
	if err := s.checkReplay(ctx, in.Nullifier); err != nil {
		s.observe(in.Type, metrics.OutcomeReplay, start)
		return nil, err
	}

	cryptoValid, err := s.verifier.Verify(ctx, in.Type.CircuitName(), in.Proof, in.PublicSignals)
	if err != nil {
		switch {
		case errors.Is(err, zkp.ErrCircuitUnavailable):
			s.observe(in.Type, metrics.OutcomeError, start)
			return nil, dErrors.Wrap(err, dErrors.CodeCircuitUnavailable,
				fmt.Sprintf("circuit %q is not provisioned", in.Type.CircuitName()))
		case errors.Is(err, zkp.ErrMalformedProof):
			s.observe(in.Type, metrics.OutcomeError, start)
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "proof or public signals are malformed")
		default:
			s.observe(in.Type, metrics.OutcomeError, start)
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "proof verification failed")
		}
	}

	predicate := predicateHolds(in.PublicSignals)
	elapsed := s.now().Sub(start)

	if !cryptoValid || !predicate {
		// Deliberate asymmetry: nothing is written, so a valid-but-under-
		// threshold proof does not burn the nullifier and the credential can
		// legitimately retry.
		s.observe(in.Type, metrics.OutcomeRejected, start)
		s.audit.Publish(ctx, audit.Event{
			Action:    audit.ActionVerificationRejected,
			Subject:   in.Nullifier,
			Timestamp: s.now(),
			Metadata:  map[string]string{"type": string(in.Type)},
		})
		return &models.VerifyResult{
			Verified:           false,
			VerificationTimeMs: elapsed.Milliseconds(),
		}, nil
	}

	record := &models.Verification{
		ID:                 uuid.New(),
		Type:               in.Type,
		Nullifier:          in.Nullifier,
		PublicSignals:      in.PublicSignals,
		VerifiedAt:         s.now(),
		VerificationTimeMs: elapsed.Milliseconds(),
		Result:             true,
		Metadata:           metadataFor(in),
	}

	// Point of no return: the append consumes the nullifier. A concurrent
	// winner surfaces as a conflict here and is reported as replay.
	if err := s.ledger.Append(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.observe(in.Type, metrics.OutcomeReplay, start)
			return nil, s.replayError(ctx, in.Nullifier)
		}
		s.observe(in.Type, metrics.OutcomeError, start)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record verification")
	}

	s.markSeen(ctx, in.Nullifier)
	s.observe(in.Type, metrics.OutcomeVerified, start)
	s.audit.Publish(ctx, audit.Event{
		Action:    audit.ActionVerificationAccepted,
		Subject:   in.Nullifier,
		Timestamp: s.now(),
		Metadata:  map[string]string{"type": string(in.Type), "verification_id": record.ID.String()},
	})

	return &models.VerifyResult{
		Verified:           true,
		Attribute:          attributeFor(in.Type, in.PublicSignals),
		VerificationID:     record.ID.String(),
		VerificationTimeMs: elapsed.Milliseconds(),
	}, nil
}

// History returns paginated ledger records plus per-type aggregates.
func (s *Service) History(ctx context.Context, limit, offset int) (*models.HistoryResult, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	var (
		records []*models.Verification
		stats   map[models.Type]models.TypeStats
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.ledger.List(gctx, limit, offset)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list verifications")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		stats, err = s.ledger.AggregateByType(gctx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to aggregate verifications")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &models.HistoryResult{
		Verifications: records,
		Stats:         stats,
		Limit:         limit,
		Offset:        offset,
	}, nil
}

func validateInput(in models.VerifyInput) error {
	if !in.Type.Valid() {
		return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown verification type %q", in.Type))
	}
	if in.Proof == "" || len(in.PublicSignals) == 0 || in.Nullifier == "" {
		return dErrors.New(dErrors.CodeBadRequest, "proof, publicSignals, and nullifier are required")
	}
	return nil
}

// checkReplay consults the optional cache, then the ledger.
func (s *Service) checkReplay(ctx context.Context, nullifier string) error {
	if s.cache != nil {
		seen, err := s.cache.Seen(ctx, nullifier)
		if err != nil {
			// Cache trouble never blocks verification; the ledger decides.
			s.logger.WarnContext(ctx, "nullifier cache lookup failed", "error", err)
		} else if seen {
			return s.replayError(ctx, nullifier)
		}
	}

	exists, err := s.ledger.Exists(ctx, nullifier)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check nullifier")
	}
	if exists {
		return s.replayError(ctx, nullifier)
	}
	return nil
}

func (s *Service) replayError(ctx context.Context, nullifier string) error {
	s.audit.Publish(ctx, audit.Event{
		Action:    audit.ActionNullifierReplay,
		Subject:   nullifier,
		Timestamp: s.now(),
	})
	return dErrors.New(dErrors.CodeNullifierReuse, "proof has already been used")
}

func (s *Service) markSeen(ctx context.Context, nullifier string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.MarkSeen(ctx, nullifier); err != nil {
		s.logger.WarnContext(ctx, "nullifier cache write failed", "error", err)
	}
}

func (s *Service) observe(typ models.Type, outcome string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveVerification(string(typ), outcome, s.now().Sub(start).Seconds())
}

// predicateHolds reads the type predicate from the fixed signal index 0.
func predicateHolds(signals []string) bool {
	return len(signals) > 0 && signals[0] == "1"
}

// attributeFor renders the human-readable attribute string for an accepted
// verification. Signal index 1 carries the type detail (threshold or region).
func attributeFor(typ models.Type, signals []string) string {
	detail := ""
	if len(signals) > 1 {
		detail = signals[1]
	}
	switch typ {
	case models.TypeAge:
		if detail == "" {
			detail = "18"
		}
		return "age >= " + detail
	case models.TypeCredential:
		return "credential valid"
	case models.TypeRegion:
		return "resident of region " + detail
	}
	return ""
}

// metadataFor attaches per-type optional metadata. Only region verifications
// record the verifier's requested region; other types carry none.
func metadataFor(in models.VerifyInput) map[string]string {
	if in.Type == models.TypeRegion && in.RequiredRegion != "" {
		return map[string]string{"required_region": in.RequiredRegion}
	}
	return nil
}
