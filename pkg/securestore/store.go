package securestore

import (
	"context"
	"time"
)

// Credentials is the access/refresh credential pair issued by the
// identity backend. The pair is owned exclusively by the secure store:
// it is written on every successful sign-in or session recovery and
// cleared as one unit.
type Credentials struct {
	AccessCredential  string `json:"access_credential"`
	RefreshCredential string `json:"refresh_credential"`
}

// IsZero reports whether no credential pair is stored.
func (c Credentials) IsZero() bool {
	return c.AccessCredential == "" && c.RefreshCredential == ""
}

// SecureStore defines the interface for the encrypted local key store.
//
// The device identifier outlives credential wipes: ClearCredentials and
// ClearBiometricEnabled never touch it. Only DeleteAll removes it.
type SecureStore interface {
	// Device identity. EnsureDeviceID creates the identifier on first
	// call and returns the same value on every later call.
	GetDeviceID(ctx context.Context) (string, error)
	EnsureDeviceID(ctx context.Context) (string, error)

	// Credential pair. Set and Clear are atomic over both credentials.
	GetCredentials(ctx context.Context) (Credentials, error)
	SetCredentials(ctx context.Context, creds Credentials) error
	ClearCredentials(ctx context.Context) error

	// Local biometric-enabled flag. Informational only: trust decisions
	// never read it, the single source of truth is the backend record.
	GetBiometricEnabled(ctx context.Context) (bool, error)
	SetBiometricEnabled(ctx context.Context, enabled bool) error
	ClearBiometricEnabled(ctx context.Context) error

	// Last-activity timestamp.
	GetLastActivity(ctx context.Context) (time.Time, error)
	SetLastActivity(ctx context.Context, at time.Time) error

	// DeleteAll wipes every key including the device identifier. Used
	// only for explicit device deletion, never for sign-out.
	DeleteAll(ctx context.Context) error
}

// StoreOptions contains configuration for secure stores
type StoreOptions struct {
	// Passphrase protects the file-backed store at rest. Ignored by the
	// in-memory store.
	Passphrase string
}

// DefaultStoreOptions returns the default store options
func DefaultStoreOptions() StoreOptions {
	return StoreOptions{}
}
