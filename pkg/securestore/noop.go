package securestore

import (
	"context"
	"fmt"
	"time"
)

// NoOpSecureStore is a no-op implementation of SecureStore.
// This allows the trust engine to be created without local storage
// when device trust is not needed.
//
// All reads report missing keys; all writes fail.
type NoOpSecureStore struct{}

// NewNoOpSecureStore creates a new no-op secure store.
func NewNoOpSecureStore() SecureStore {
	return &NoOpSecureStore{}
}

func (s *NoOpSecureStore) GetDeviceID(ctx context.Context) (string, error) {
	return "", ErrKeyNotFound
}

func (s *NoOpSecureStore) EnsureDeviceID(ctx context.Context) (string, error) {
	return "", fmt.Errorf("secure store not configured")
}

func (s *NoOpSecureStore) GetCredentials(ctx context.Context) (Credentials, error) {
	return Credentials{}, ErrKeyNotFound
}

func (s *NoOpSecureStore) SetCredentials(ctx context.Context, creds Credentials) error {
	return fmt.Errorf("secure store not configured")
}

func (s *NoOpSecureStore) ClearCredentials(ctx context.Context) error {
	return nil // Nothing stored, clearing succeeds
}

func (s *NoOpSecureStore) GetBiometricEnabled(ctx context.Context) (bool, error) {
	return false, ErrKeyNotFound
}

func (s *NoOpSecureStore) SetBiometricEnabled(ctx context.Context, enabled bool) error {
	return fmt.Errorf("secure store not configured")
}

func (s *NoOpSecureStore) ClearBiometricEnabled(ctx context.Context) error {
	return nil
}

func (s *NoOpSecureStore) GetLastActivity(ctx context.Context) (time.Time, error) {
	return time.Time{}, ErrKeyNotFound
}

func (s *NoOpSecureStore) SetLastActivity(ctx context.Context, at time.Time) error {
	return fmt.Errorf("secure store not configured")
}

func (s *NoOpSecureStore) DeleteAll(ctx context.Context) error {
	return nil
}
