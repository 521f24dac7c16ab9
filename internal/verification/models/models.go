package models

import (
	"time"

	"github.com/google/uuid"
)

// Type enumerates the supported verification predicates.
type Type string

const (
	TypeAge        Type = "age"
	TypeCredential Type = "credential_validity"
	TypeRegion     Type = "region"
)

// Valid reports whether t names a known verification type.
func (t Type) Valid() bool {
	switch t {
	case TypeAge, TypeCredential, TypeRegion:
		return true
	}
	return false
}

// Tag is the domain separator mixed into nullifiers, one per type, so a
// single credential yields distinct, non-linkable nullifiers per type and the
// same nullifier on repeated attempts of one type.
func (t Type) Tag() int64 {
	switch t {
	case TypeAge:
		return 1
	case TypeCredential:
		return 2
	case TypeRegion:
		return 3
	}
	return 0
}

// CircuitName maps the type to its artifact set.
func (t Type) CircuitName() string { return string(t) }

// Verification is one accepted proof. A row exists iff the proof was
// cryptographically valid AND its type predicate held; it is never mutated,
// deleted, or linked back to a credential.
type Verification struct {
	ID                 uuid.UUID         `json:"id"`
	Type               Type              `json:"type"`
	Nullifier          string            `json:"-"`
	PublicSignals      []string          `json:"-"`
	VerifiedAt         time.Time         `json:"verified_at"`
	VerificationTimeMs int64             `json:"verification_time_ms"`
	Result             bool              `json:"result"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

// VerifyInput is the boundary payload for one verification attempt.
type VerifyInput struct {
	Type          Type     `json:"type"`
	Proof         string   `json:"proof"`
	PublicSignals []string `json:"publicSignals"`
	Nullifier     string   `json:"nullifier"`
	// RequiredRegion is recorded as metadata for region verifications only.
	RequiredRegion string `json:"requiredRegion,omitempty"`
}

// VerifyResult reports the outcome of a verification attempt. Verified=false
// with a nil error is the predicate-false/invalid-proof outcome, strictly
// distinct from the error taxonomy.
type VerifyResult struct {
	Verified           bool   `json:"verified"`
	Attribute          string `json:"attribute,omitempty"`
	VerificationID     string `json:"verificationId,omitempty"`
	VerificationTimeMs int64  `json:"verificationTimeMs"`
}

// TypeStats aggregates the ledger per verification type.
type TypeStats struct {
	Count            int64   `json:"count"`
	SuccessRate      float64 `json:"successRate"`
	AvgVerifyTimeMs  float64 `json:"avgVerifyTimeMs"`
}

// HistoryResult pages ledger records newest-first with aggregate stats.
type HistoryResult struct {
	Verifications []*Verification    `json:"verifications"`
	Stats         map[Type]TypeStats `json:"stats"`
	Limit         int                `json:"limit"`
	Offset        int                `json:"offset"`
}
