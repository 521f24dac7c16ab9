// Package service implements credential issuance: attribute validation,
// commitment and nullifier-base derivation, issuer signing, and PII-free
// persistence.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"

	"proof-gateway/internal/credential/commitment"
	"proof-gateway/internal/credential/models"
	"proof-gateway/internal/credential/signer"
	credentialstore "proof-gateway/internal/credential/store/credential"
	issuerstore "proof-gateway/internal/credential/store/issuer"
	"proof-gateway/internal/platform/audit"
	"proof-gateway/internal/platform/metrics"
	dErrors "proof-gateway/pkg/domain-errors"
	"proof-gateway/pkg/platform/sentinel"
)

// CredentialType is the single credential class issued today.
const CredentialType = "identity"

// Validity bounds a credential's lifetime from issuance.
const Validity = 365 * 24 * time.Hour

// Service orchestrates the issuance flow.
type Service struct {
	issuers     issuerstore.Store
	credentials credentialstore.Store
	signer      *signer.Signer
	metrics     *metrics.Metrics
	audit       audit.Publisher
	logger      *slog.Logger
	now         func() time.Time
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

func New(issuers issuerstore.Store, credentials credentialstore.Store, sig *signer.Signer, logger *slog.Logger, opts ...Option) (*Service, error) {
	if issuers == nil || credentials == nil {
		return nil, fmt.Errorf("issuer and credential stores are required")
	}
	if sig == nil {
		return nil, fmt.Errorf("issuer signer is required")
	}

	s := &Service{
		issuers:     issuers,
		credentials: credentials,
		signer:      sig,
		audit:       audit.Noop{},
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue validates raw attributes, derives the commitment and private witness,
// signs the binding assertion, and persists only the PII-free credential row.
// The returned witness and nullifier base are never stored server-side.
func (s *Service) Issue(ctx context.Context, raw models.RawAttributes) (*models.IssueResult, error) {
	if err := raw.Validate(); err != nil {
		return nil, err
	}

	active, err := s.issuers.ListActive(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list issuers")
	}
	if len(active) == 0 {
		return nil, dErrors.New(dErrors.CodeNoIssuerAvailable, "no active issuer is provisioned")
	}
	issuer := active[0]

	dob, err := models.ParseDateOfBirth(raw.DateOfBirth)
	if err != nil {
		return nil, err
	}
	digits := models.IdentityDigits(raw.IdentityNumber)
	now := s.now()

	com := commitment.Commit(dob, digits)
	salt := newSalt()
	base := commitment.NullifierBase(com, salt)

	sig, err := s.signer.Sign(com)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign commitment")
	}

	cred := &models.Credential{
		ID:         uuid.New(),
		IssuerID:   issuer.ID,
		Commitment: com.String(),
		Type:       CredentialType,
		IssuedAt:   now,
		ExpiresAt:  now.Add(Validity),
	}
	if err := s.credentials.Create(ctx, cred); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Same attributes, same commitment: the credential already exists.
			return nil, dErrors.New(dErrors.CodeConflict, "a credential for these attributes is already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist credential")
	}

	if s.metrics != nil {
		s.metrics.IncrementCredentialsIssued()
	}
	s.audit.Publish(ctx, audit.Event{
		Action:    audit.ActionCredentialIssued,
		Subject:   cred.Commitment,
		Timestamp: now,
		Metadata:  map[string]string{"issuer_id": issuer.ID.String()},
	})

	return &models.IssueResult{
		CredentialID: cred.ID,
		Commitment:   cred.Commitment,
		Assertion: models.PublicAssertion{
			Commitment:      cred.Commitment,
			IssuerPublicKey: [2]string{issuer.PublicKeyX, issuer.PublicKeyY},
			Signature:       sig.Bytes,
			SignatureR8:     [2]string{sig.R8X, sig.R8Y},
			SignatureS:      sig.S,
			CurrentDate:     models.DateParts{Year: now.Year(), Month: int(now.Month()), Day: now.Day()},
		},
		Witness: models.PrivateWitness{
			DateOfBirth:    dob,
			IdentityDigits: digits,
			Age:            dob.AgeAt(now),
			Pincode:        numericPincode(raw.Pincode),
			RegionCode:     models.RegionCode(raw.Pincode),
			Salt:           salt.String(),
			NullifierBase:  base.String(),
		},
		IssuedAt:   cred.IssuedAt,
		ExpiresAt:  cred.ExpiresAt,
		IssuerID:   issuer.ID,
		IssuerName: issuer.Name,
	}, nil
}

// CheckCommitment reports whether a commitment is backed by a live
// credential. Unknown commitments return valid=false, not an error.
func (s *Service) CheckCommitment(ctx context.Context, com string) (*models.CommitmentStatus, error) {
	cred, err := s.credentials.FindByCommitment(ctx, com)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return &models.CommitmentStatus{Valid: false}, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up commitment")
	}

	valid := !cred.Revoked && s.now().Before(cred.ExpiresAt)
	return &models.CommitmentStatus{
		Valid:     valid,
		IssuedAt:  &cred.IssuedAt,
		ExpiresAt: &cred.ExpiresAt,
		Revoked:   &cred.Revoked,
	}, nil
}

// ListIssuers returns the active issuers.
func (s *Service) ListIssuers(ctx context.Context) ([]*models.Issuer, error) {
	active, err := s.issuers.ListActive(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list issuers")
	}
	return active, nil
}

// Revoke marks a credential revoked. Already-recorded verifications are
// unaffected: the ledger is append-only and deliberately unlinked.
func (s *Service) Revoke(ctx context.Context, com string) error {
	if err := s.credentials.Revoke(ctx, com); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "commitment not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke credential")
	}
	s.audit.Publish(ctx, audit.Event{
		Action:    audit.ActionCredentialRevoked,
		Subject:   com,
		Timestamp: s.now(),
	})
	return nil
}

// newSalt derives a random field-sized salt from a v4 UUID, one per issuance.
func newSalt() *big.Int {
	id := uuid.New()
	return new(big.Int).SetBytes(id[:])
}

func numericPincode(pincode string) int {
	n := 0
	for _, r := range pincode {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
