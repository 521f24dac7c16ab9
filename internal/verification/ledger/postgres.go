package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"proof-gateway/internal/platform/postgres"
	"proof-gateway/internal/verification/models"
	"proof-gateway/pkg/platform/sentinel"
)

// PostgresLedger persists verifications in PostgreSQL. The unique index on
// nullifier is the authoritative replay guard; Append translates the
// constraint violation into sentinel.ErrConflict.
type PostgresLedger struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// Schema is applied at bootstrap by the migration runner in cmd/server.
const Schema = `
CREATE TABLE IF NOT EXISTS verifications (
	id UUID PRIMARY KEY,
	verification_type TEXT NOT NULL,
	nullifier TEXT NOT NULL,
	public_signals JSONB NOT NULL DEFAULT '[]',
	verified_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	verification_time_ms BIGINT NOT NULL DEFAULT 0,
	result BOOLEAN NOT NULL,
	metadata JSONB NOT NULL DEFAULT '{}'
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_verifications_nullifier ON verifications(nullifier);
CREATE INDEX IF NOT EXISTS idx_verifications_type ON verifications(verification_type);
`

func (s *PostgresLedger) Exists(ctx context.Context, nullifier string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM verifications WHERE nullifier = $1)`, nullifier,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check nullifier: %w", err)
	}
	return exists, nil
}

func (s *PostgresLedger) Append(ctx context.Context, v *models.Verification) error {
	signals, err := json.Marshal(v.PublicSignals)
	if err != nil {
		return fmt.Errorf("marshal public signals: %w", err)
	}
	metadata, err := json.Marshal(v.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO verifications (id, verification_type, nullifier, public_signals, verified_at, verification_time_ms, result, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, v.ID, v.Type, v.Nullifier, signals, v.VerifiedAt, v.VerificationTimeMs, v.Result, metadata)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("nullifier %s: %w", v.Nullifier, sentinel.ErrConflict)
		}
		return fmt.Errorf("append verification: %w", err)
	}
	return nil
}

func (s *PostgresLedger) List(ctx context.Context, limit, offset int) ([]*models.Verification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, verification_type, nullifier, public_signals, verified_at, verification_time_ms, result, metadata
		FROM verifications
		ORDER BY verified_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list verifications: %w", err)
	}
	defer rows.Close()

	var out []*models.Verification
	for rows.Next() {
		var v models.Verification
		var signals, metadata []byte
		if err := rows.Scan(&v.ID, &v.Type, &v.Nullifier, &signals, &v.VerifiedAt, &v.VerificationTimeMs, &v.Result, &metadata); err != nil {
			return nil, fmt.Errorf("scan verification: %w", err)
		}
		if err := json.Unmarshal(signals, &v.PublicSignals); err != nil {
			return nil, fmt.Errorf("unmarshal public signals: %w", err)
		}
		if err := json.Unmarshal(metadata, &v.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}

func (s *PostgresLedger) AggregateByType(ctx context.Context) (map[models.Type]models.TypeStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT verification_type, COUNT(*), AVG(verification_time_ms)
		FROM verifications
		GROUP BY verification_type
	`)
	if err != nil {
		return nil, fmt.Errorf("aggregate verifications: %w", err)
	}
	defer rows.Close()

	out := make(map[models.Type]models.TypeStats)
	for rows.Next() {
		var typ models.Type
		var count int64
		var avg sql.NullFloat64
		if err := rows.Scan(&typ, &count, &avg); err != nil {
			return nil, fmt.Errorf("scan aggregate: %w", err)
		}
		out[typ] = models.TypeStats{Count: count, SuccessRate: 1, AvgVerifyTimeMs: avg.Float64}
	}
	return out, rows.Err()
}
