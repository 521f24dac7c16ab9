package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"proof-gateway/internal/platform/postgres"
	"proof-gateway/internal/request/models"
	"proof-gateway/pkg/platform/sentinel"
)

// PostgresStore persists verification requests in PostgreSQL. Finalize relies
// on a conditional UPDATE so the pending→terminal transition is atomic even
// across processes.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema is applied at bootstrap by the migration runner in cmd/server.
const Schema = `
CREATE TABLE IF NOT EXISTS verification_requests (
	id UUID PRIMARY KEY,
	code TEXT NOT NULL,
	verification_type TEXT NOT NULL,
	verifier_name TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	verification_id TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL,
	finalized_at TIMESTAMPTZ
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_verification_requests_code ON verification_requests(code);
CREATE INDEX IF NOT EXISTS idx_verification_requests_verifier ON verification_requests(verifier_name, status);
`

func (s *PostgresStore) Create(ctx context.Context, req *models.VerificationRequest) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO verification_requests (id, code, verification_type, verifier_name, status, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, req.ID, req.Code, req.Type, req.VerifierName, req.Status, req.CreatedAt, req.ExpiresAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("request %s: %w", req.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("create verification request: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.VerificationRequest, error) {
	return s.findOne(ctx, `WHERE id = $1`, id)
}

func (s *PostgresStore) FindByCode(ctx context.Context, code string) (*models.VerificationRequest, error) {
	return s.findOne(ctx, `WHERE code = $1`, code)
}

func (s *PostgresStore) findOne(ctx context.Context, where string, arg any) (*models.VerificationRequest, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, code, verification_type, verifier_name, status, verification_id, created_at, expires_at, finalized_at
		FROM verification_requests `+where, arg)

	var req models.VerificationRequest
	var finalizedAt sql.NullTime
	err := row.Scan(&req.ID, &req.Code, &req.Type, &req.VerifierName, &req.Status,
		&req.VerificationID, &req.CreatedAt, &req.ExpiresAt, &finalizedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find verification request: %w", err)
	}
	if finalizedAt.Valid {
		req.FinalizedAt = &finalizedAt.Time
	}
	return &req, nil
}

func (s *PostgresStore) Finalize(ctx context.Context, id uuid.UUID, status models.Status, verificationID string, finalizedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE verification_requests
		SET status = $2, verification_id = $3, finalized_at = $4
		WHERE id = $1 AND status = 'pending'
	`, id, status, verificationID, finalizedAt)
	if err != nil {
		return fmt.Errorf("finalize verification request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finalize verification request: %w", err)
	}
	if affected == 0 {
		// Either unknown or already terminal; distinguish for the caller.
		if _, err := s.FindByID(ctx, id); err != nil {
			return err
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) ListPending(ctx context.Context, verifierName string, now time.Time) ([]*models.VerificationRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, verification_type, verifier_name, status, verification_id, created_at, expires_at, finalized_at
		FROM verification_requests
		WHERE verifier_name = $1 AND status = 'pending' AND expires_at > $2
		ORDER BY created_at DESC
	`, verifierName, now)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	defer rows.Close()

	var out []*models.VerificationRequest
	for rows.Next() {
		var req models.VerificationRequest
		var finalizedAt sql.NullTime
		if err := rows.Scan(&req.ID, &req.Code, &req.Type, &req.VerifierName, &req.Status,
			&req.VerificationID, &req.CreatedAt, &req.ExpiresAt, &finalizedAt); err != nil {
			return nil, fmt.Errorf("scan verification request: %w", err)
		}
		if finalizedAt.Valid {
			req.FinalizedAt = &finalizedAt.Time
		}
		out = append(out, &req)
	}
	return out, rows.Err()
}
