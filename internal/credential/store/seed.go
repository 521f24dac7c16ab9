package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"proof-gateway/internal/credential/models"
	"proof-gateway/internal/credential/signer"
	issuerstore "proof-gateway/internal/credential/store/issuer"
)

// SeedBootstrapIssuer registers the default issuing authority backed by the
// server's signing key, so a fresh deployment can issue immediately.
func SeedBootstrapIssuer(ctx context.Context, issuers issuerstore.Store, sig *signer.Signer) (*models.Issuer, error) {
	x, y := sig.PublicKeyCoords()
	iss := &models.Issuer{
		ID:         uuid.New(),
		Name:       "default-authority",
		PublicKeyX: x,
		PublicKeyY: y,
		Active:     true,
		CreatedAt:  time.Now(),
	}
	if err := issuers.Create(ctx, iss); err != nil {
		return nil, err
	}
	return iss, nil
}
