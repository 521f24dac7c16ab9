package models

import (
	"time"

	"github.com/google/uuid"

	verificationmodels "proof-gateway/internal/verification/models"
)

// Status is the request lifecycle state. Pending is the only non-terminal
// state; no transition ever leaves a terminal state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusExpired   Status = "expired"
)

// Terminal reports whether s permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusExpired
}

// VerificationRequest is a verifier-initiated, single-use verification
// handshake. The type is bound at creation; the prover cannot substitute it.
type VerificationRequest struct {
	ID             uuid.UUID               `json:"id"`
	Code           string                  `json:"code"`
	Type           verificationmodels.Type `json:"type"`
	VerifierName   string                  `json:"verifier_name"`
	Status         Status                  `json:"status"`
	VerificationID string                  `json:"verification_id,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
	ExpiresAt      time.Time               `json:"expires_at"`
	FinalizedAt    *time.Time              `json:"finalized_at,omitempty"`
}

// EffectiveStatus projects a pending request as expired once past its TTL,
// without requiring a write.
func (r *VerificationRequest) EffectiveStatus(now time.Time) Status {
	if r.Status == StatusPending && now.After(r.ExpiresAt) {
		return StatusExpired
	}
	return r.Status
}

// CreateInput is the boundary payload for opening a request.
type CreateInput struct {
	Type         verificationmodels.Type `json:"type"`
	VerifierName string                  `json:"verifierName"`
}

// CreateResult is returned to the verifier, including the shareable code the
// prover scans or types.
type CreateResult struct {
	RequestID     uuid.UUID `json:"requestId"`
	Code          string    `json:"code"`
	ShareableCode string    `json:"shareableCode"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// CompleteResult reports the outcome of finalizing a request.
type CompleteResult struct {
	RequestID      uuid.UUID `json:"requestId"`
	Status         Status    `json:"status"`
	Verified       bool      `json:"verified"`
	Attribute      string    `json:"attribute,omitempty"`
	VerificationID string    `json:"verificationId,omitempty"`
}
