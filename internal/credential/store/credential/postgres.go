package credential

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"proof-gateway/internal/credential/models"
	"proof-gateway/internal/platform/postgres"
	"proof-gateway/pkg/platform/sentinel"
)

// PostgresStore persists credentials in PostgreSQL. The unique constraint on
// commitment is authoritative for duplicate detection.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const Schema = `
CREATE TABLE IF NOT EXISTS credentials (
	id UUID PRIMARY KEY,
	issuer_id UUID NOT NULL REFERENCES issuers(id),
	commitment TEXT NOT NULL UNIQUE,
	credential_type TEXT NOT NULL,
	issued_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL,
	revoked BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_credentials_commitment ON credentials(commitment);
`

func (s *PostgresStore) Create(ctx context.Context, cred *models.Credential) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (id, issuer_id, commitment, credential_type, issued_at, expires_at, revoked)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, cred.ID, cred.IssuerID, cred.Commitment, cred.Type, cred.IssuedAt, cred.ExpiresAt, cred.Revoked)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("commitment already registered: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create credential: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByCommitment(ctx context.Context, commitment string) (*models.Credential, error) {
	var cred models.Credential
	err := s.db.QueryRowContext(ctx, `
		SELECT id, issuer_id, commitment, credential_type, issued_at, expires_at, revoked
		FROM credentials WHERE commitment = $1
	`, commitment).Scan(&cred.ID, &cred.IssuerID, &cred.Commitment, &cred.Type, &cred.IssuedAt, &cred.ExpiresAt, &cred.Revoked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}
	return &cred, nil
}

func (s *PostgresStore) Revoke(ctx context.Context, commitment string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE credentials SET revoked = TRUE WHERE commitment = $1`, commitment)
	if err != nil {
		return fmt.Errorf("revoke credential: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke credential: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
