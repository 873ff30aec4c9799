// Package audit provides the append-only sink for security-relevant events.
//
// The trust engine emits to the sink but never depends on it for
// correctness: a failing sink is logged and ignored.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action identifies the kind of security-relevant event
type Action string

const (
	ActionSessionRestore      Action = "session_restore"
	ActionBiometricUnlock     Action = "biometric_unlock"
	ActionBiometricEnroll     Action = "biometric_enroll"
	ActionCredentialWipe      Action = "credential_wipe"
	ActionRevocationEnforced  Action = "revocation_enforced"
	ActionFingerprintMismatch Action = "fingerprint_mismatch"
	ActionDeviceRevoked       Action = "device_revoked"
)

// Event is one append-only audit entry
type Event struct {
	ID       uuid.UUID              `json:"id"`
	UserID   uuid.UUID              `json:"user_id"`
	DeviceID string                 `json:"device_id,omitempty"`
	Action   Action                 `json:"action"`
	Outcome  string                 `json:"outcome"`
	Message  string                 `json:"message,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	At       time.Time              `json:"at"`
}

// WithMetadata adds metadata to the event
func (e Event) WithMetadata(key string, value interface{}) Event {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// Sink defines the interface for audit event ingestion (sink pattern).
// A sink only receives and stores events, it does not return query results.
type Sink interface {
	// Append receives and stores one audit event
	Append(ctx context.Context, event Event) error
}
