package securestore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrKeyNotFound is returned when a requested key has no stored value.
var ErrKeyNotFound = errors.New("key not found")

// InMemSecureStore implements SecureStore using in-memory state
type InMemSecureStore struct {
	deviceID         string
	credentials      *Credentials
	biometricEnabled *bool
	lastActivity     *time.Time
	mu               sync.Mutex
}

// NewInMemSecureStore creates a new in-memory secure store
func NewInMemSecureStore() *InMemSecureStore {
	return &InMemSecureStore{}
}

// GetDeviceID retrieves the stored device identifier
func (s *InMemSecureStore) GetDeviceID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deviceID == "" {
		return "", ErrKeyNotFound
	}
	return s.deviceID, nil
}

// EnsureDeviceID returns the stored device identifier, creating it on first call
func (s *InMemSecureStore) EnsureDeviceID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deviceID == "" {
		s.deviceID = uuid.New().String()
	}
	return s.deviceID, nil
}

// GetCredentials retrieves the stored credential pair
func (s *InMemSecureStore) GetCredentials(ctx context.Context) (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.credentials == nil {
		return Credentials{}, ErrKeyNotFound
	}
	return *s.credentials, nil
}

// SetCredentials stores the credential pair as one unit
func (s *InMemSecureStore) SetCredentials(ctx context.Context, creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	credsCopy := creds
	s.credentials = &credsCopy
	return nil
}

// ClearCredentials removes both credentials. The device identifier is retained.
func (s *InMemSecureStore) ClearCredentials(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.credentials = nil
	return nil
}

// GetBiometricEnabled retrieves the local biometric flag
func (s *InMemSecureStore) GetBiometricEnabled(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.biometricEnabled == nil {
		return false, ErrKeyNotFound
	}
	return *s.biometricEnabled, nil
}

// SetBiometricEnabled stores the local biometric flag
func (s *InMemSecureStore) SetBiometricEnabled(ctx context.Context, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.biometricEnabled = &enabled
	return nil
}

// ClearBiometricEnabled removes the local biometric flag
func (s *InMemSecureStore) ClearBiometricEnabled(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.biometricEnabled = nil
	return nil
}

// GetLastActivity retrieves the last-activity timestamp
func (s *InMemSecureStore) GetLastActivity(ctx context.Context) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastActivity == nil {
		return time.Time{}, ErrKeyNotFound
	}
	return *s.lastActivity, nil
}

// SetLastActivity stores the last-activity timestamp
func (s *InMemSecureStore) SetLastActivity(ctx context.Context, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	atCopy := at
	s.lastActivity = &atCopy
	return nil
}

// DeleteAll wipes every key including the device identifier
func (s *InMemSecureStore) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deviceID = ""
	s.credentials = nil
	s.biometricEnabled = nil
	s.lastActivity = nil
	return nil
}
