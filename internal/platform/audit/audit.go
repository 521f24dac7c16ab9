// Package audit captures key domain actions for operational visibility. Events
// carry no PII: subjects are commitments, nullifiers, and request codes, which
// are already anonymized values.
package audit

import (
	"context"
	"time"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Action    string            `json:"action"`
	Subject   string            `json:"subject"`
	Timestamp time.Time         `json:"timestamp"`
	RequestID string            `json:"request_id,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Actions emitted by the gateway.
const (
	ActionCredentialIssued      = "credential_issued"
	ActionCredentialRevoked     = "credential_revoked"
	ActionVerificationAccepted  = "verification_accepted"
	ActionVerificationRejected  = "verification_rejected"
	ActionNullifierReplay       = "nullifier_replay"
	ActionRequestCreated        = "verification_request_created"
	ActionRequestFinalized      = "verification_request_finalized"
)

// Publisher delivers audit events to a sink. Publish must not block domain
// logic on sink latency; implementations buffer or fire-and-forget.
type Publisher interface {
	Publish(ctx context.Context, event Event)
	Close()
}

// Noop discards events. Used when no audit sink is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) {}
func (Noop) Close()                         {}
