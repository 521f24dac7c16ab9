package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"proof-gateway/internal/request/models"
)

// Store abstracts verification-request persistence. Finalize is the
// authoritative pending→terminal guard; implementations make it atomic per
// request id.
type Store interface {
	Create(ctx context.Context, req *models.VerificationRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.VerificationRequest, error)
	FindByCode(ctx context.Context, code string) (*models.VerificationRequest, error)
	// Finalize transitions the request from pending to the given terminal
	// status. Returns sentinel.ErrNotFound for unknown ids and
	// sentinel.ErrInvalidState when the request is no longer pending.
	Finalize(ctx context.Context, id uuid.UUID, status models.Status, verificationID string, finalizedAt time.Time) error
	// ListPending returns non-expired pending requests for a verifier,
	// newest first.
	ListPending(ctx context.Context, verifierName string, now time.Time) ([]*models.VerificationRequest, error)
}
