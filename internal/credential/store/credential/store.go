package credential

import (
	"context"

	"proof-gateway/internal/credential/models"
)

// Store abstracts credential persistence. Only {issuerId, commitment, type,
// expiry, revocation} are ever stored; the witness never reaches this layer.
type Store interface {
	// Create persists a credential. Returns sentinel.ErrConflict (possibly
	// wrapped) when the commitment is already registered.
	Create(ctx context.Context, cred *models.Credential) error
	FindByCommitment(ctx context.Context, commitment string) (*models.Credential, error)
	// Revoke marks the credential revoked. Returns sentinel.ErrNotFound when
	// the commitment is unknown.
	Revoke(ctx context.Context, commitment string) error
}
