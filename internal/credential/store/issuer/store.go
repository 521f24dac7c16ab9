package issuer

import (
	"context"

	"github.com/google/uuid"

	"proof-gateway/internal/credential/models"
)

// Store abstracts issuer persistence.
type Store interface {
	Create(ctx context.Context, issuer *models.Issuer) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Issuer, error)
	// ListActive returns active issuers only, oldest first so the bootstrap
	// issuer stays the default.
	ListActive(ctx context.Context) ([]*models.Issuer, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}
