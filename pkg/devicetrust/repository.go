package devicetrust

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrRecordNotFound is returned when no trust record exists for a
// (user, device) pair.
var ErrRecordNotFound = errors.New("trust record not found")

// TrustRecord is the backend-owned device trust record for one
// (user, device) pair. The four trust fields are required: a record
// missing any of them is rejected rather than duck-typed.
type TrustRecord struct {
	UserID           uuid.UUID `json:"user_id"`
	DeviceID         string    `json:"device_id"` // Locally generated, stable per installation
	BiometricEnabled bool      `json:"biometric_enabled"`
	Trusted          bool      `json:"trusted"`
	Revoked          bool      `json:"revoked"`
	TokenFingerprint string    `json:"token_fingerprint,omitempty"`
	LastUsedAt       time.Time `json:"last_used_at"`
	CreatedAt        time.Time `json:"created_at"`
	LastModifiedAt   time.Time `json:"last_modified_at"`
}

// TrustRepository defines the interface for trust record storage operations
type TrustRepository interface {
	// GetTrustRecord returns the record for (user, device), or
	// ErrRecordNotFound when none exists.
	GetTrustRecord(ctx context.Context, userID uuid.UUID, deviceID string) (TrustRecord, error)

	// UpsertTrustRecord creates or replaces the record keyed on
	// (user_id, device_id). Repeated upserts for the same pair update
	// the existing row, they never duplicate it.
	UpsertTrustRecord(ctx context.Context, record TrustRecord) (TrustRecord, error)

	// FindRecordsByUser returns all trust records for a user
	FindRecordsByUser(ctx context.Context, userID uuid.UUID) ([]TrustRecord, error)

	// RevokeDevice sets revoked=true on the record. Revocation is
	// one-way: no repository operation clears it short of deletion.
	RevokeDevice(ctx context.Context, userID uuid.UUID, deviceID string) error

	// UpdateLastUsed updates the last-used timestamp only
	UpdateLastUsed(ctx context.Context, userID uuid.UUID, deviceID string, lastUsed time.Time) error

	// DeleteTrustRecord removes the record entirely (explicit device deletion)
	DeleteTrustRecord(ctx context.Context, userID uuid.UUID, deviceID string) error
}

// TrustRepositoryOptions contains configuration for trust repositories
type TrustRepositoryOptions struct {
	// MaxRecordsPerUser bounds how many device records one user may
	// accumulate. Zero means unbounded.
	MaxRecordsPerUser int
}

// DefaultTrustRepositoryOptions returns the default repository options
func DefaultTrustRepositoryOptions() TrustRepositoryOptions {
	return TrustRepositoryOptions{}
}
