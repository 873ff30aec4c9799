package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/carelock/device-trust/pkg/devicetrust"
)

var (
	// ErrBackendUnavailable means the identity backend could not be
	// reached. Trust-relevant reads treat this as "cannot confirm
	// trust" and fail closed.
	ErrBackendUnavailable = errors.New("identity backend unavailable")

	// ErrSessionInvalid means the refresh credential is expired,
	// malformed, or otherwise unusable for session recovery.
	ErrSessionInvalid = errors.New("session invalid")
)

// Backend is the interface to the authoritative identity store.
// It is the only party that can confirm session validity and device
// trust; nothing local overrides its answers.
type Backend interface {
	// GetDeviceRecord returns the trust record for (user, device), or
	// devicetrust.ErrRecordNotFound when no record exists.
	GetDeviceRecord(ctx context.Context, userID uuid.UUID, deviceID string) (devicetrust.TrustRecord, error)

	// UpsertDeviceRecord creates or updates the trust record, keyed on
	// (user_id, device_id).
	UpsertDeviceRecord(ctx context.Context, record devicetrust.TrustRecord) (devicetrust.TrustRecord, error)

	// ValidateOrRecoverSession exchanges a refresh credential for a
	// fresh access credential. Returns ErrSessionInvalid when the
	// refresh credential cannot be used.
	ValidateOrRecoverSession(ctx context.Context, refreshCredential string) (string, error)

	// HasActiveSession reports whether the access credential belongs to
	// a live session for the given user.
	HasActiveSession(ctx context.Context, userID uuid.UUID, accessCredential string) (bool, error)

	// RecordDeviceUsage updates the last-used timestamp on the record.
	RecordDeviceUsage(ctx context.Context, userID uuid.UUID, deviceID string) error

	// RevokeDevice marks the device revoked. Asserted out-of-band (from
	// another device or by an administrator); the trust engine observes
	// it lazily on the next trust check.
	RevokeDevice(ctx context.Context, userID uuid.UUID, deviceID string) error
}
