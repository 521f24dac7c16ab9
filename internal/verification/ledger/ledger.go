// Package ledger is the append-only store of accepted verifications, keyed by
// nullifier. It is the source of replay protection: the uniqueness constraint
// here is authoritative, any pre-check elsewhere is a fast path.
package ledger

import (
	"context"

	"proof-gateway/internal/verification/models"
)

// Ledger abstracts the durable verification store so the gateway can run
// against memory in tests and Postgres in production.
type Ledger interface {
	// Exists reports whether a nullifier was already consumed.
	Exists(ctx context.Context, nullifier string) (bool, error)
	// Append records an accepted verification. Returns sentinel.ErrConflict
	// (possibly wrapped) when the nullifier is already present.
	Append(ctx context.Context, v *models.Verification) error
	// List returns records ordered by recency descending.
	List(ctx context.Context, limit, offset int) ([]*models.Verification, error)
	// AggregateByType summarizes the ledger per verification type.
	AggregateByType(ctx context.Context) (map[models.Type]models.TypeStats, error)
}
