package issuer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"proof-gateway/internal/credential/models"
	"proof-gateway/internal/platform/postgres"
	"proof-gateway/pkg/platform/sentinel"
)

// PostgresStore persists issuers in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const Schema = `
CREATE TABLE IF NOT EXISTS issuers (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	public_key_x TEXT NOT NULL,
	public_key_y TEXT NOT NULL,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func (s *PostgresStore) Create(ctx context.Context, issuer *models.Issuer) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO issuers (id, name, public_key_x, public_key_y, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, issuer.ID, issuer.Name, issuer.PublicKeyX, issuer.PublicKeyY, issuer.Active, issuer.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create issuer: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Issuer, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, public_key_x, public_key_y, active, created_at
		FROM issuers WHERE id = $1
	`, id)
	return scanIssuer(row)
}

func (s *PostgresStore) ListActive(ctx context.Context) ([]*models.Issuer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, public_key_x, public_key_y, active, created_at
		FROM issuers WHERE active ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list issuers: %w", err)
	}
	defer rows.Close()

	var out []*models.Issuer
	for rows.Next() {
		var issuer models.Issuer
		if err := rows.Scan(&issuer.ID, &issuer.Name, &issuer.PublicKeyX, &issuer.PublicKeyY, &issuer.Active, &issuer.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan issuer: %w", err)
		}
		out = append(out, &issuer)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE issuers SET active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("set issuer active: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set issuer active: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanIssuer(row *sql.Row) (*models.Issuer, error) {
	var issuer models.Issuer
	err := row.Scan(&issuer.ID, &issuer.Name, &issuer.PublicKeyX, &issuer.PublicKeyY, &issuer.Active, &issuer.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan issuer: %w", err)
	}
	return &issuer, nil
}
