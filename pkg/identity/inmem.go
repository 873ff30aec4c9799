package identity

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/carelock/device-trust/pkg/devicetrust"
)

// InMemBackend wraps a Service with a reachability switch. When marked
// unavailable every call returns ErrBackendUnavailable, which is how
// tests exercise the fail-closed paths.
type InMemBackend struct {
	*Service
	unavailable bool
	mu          sync.Mutex
}

// NewInMemBackend creates an in-memory identity backend
func NewInMemBackend(tokens *TokenService) *InMemBackend {
	return &InMemBackend{
		Service: NewService(devicetrust.NewInMemTrustRepository(), tokens),
	}
}

// SetAvailable toggles backend reachability
func (b *InMemBackend) SetAvailable(available bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unavailable = !available
}

func (b *InMemBackend) reachable() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.unavailable {
		return ErrBackendUnavailable
	}
	return nil
}

func (b *InMemBackend) GetDeviceRecord(ctx context.Context, userID uuid.UUID, deviceID string) (devicetrust.TrustRecord, error) {
	if err := b.reachable(); err != nil {
		return devicetrust.TrustRecord{}, err
	}
	return b.Service.GetDeviceRecord(ctx, userID, deviceID)
}

func (b *InMemBackend) UpsertDeviceRecord(ctx context.Context, record devicetrust.TrustRecord) (devicetrust.TrustRecord, error) {
	if err := b.reachable(); err != nil {
		return devicetrust.TrustRecord{}, err
	}
	return b.Service.UpsertDeviceRecord(ctx, record)
}

func (b *InMemBackend) ValidateOrRecoverSession(ctx context.Context, refreshCredential string) (string, error) {
	if err := b.reachable(); err != nil {
		return "", err
	}
	return b.Service.ValidateOrRecoverSession(ctx, refreshCredential)
}

func (b *InMemBackend) HasActiveSession(ctx context.Context, userID uuid.UUID, accessCredential string) (bool, error) {
	if err := b.reachable(); err != nil {
		return false, err
	}
	return b.Service.HasActiveSession(ctx, userID, accessCredential)
}

func (b *InMemBackend) FindRecordsByUser(ctx context.Context, userID uuid.UUID) ([]devicetrust.TrustRecord, error) {
	if err := b.reachable(); err != nil {
		return nil, err
	}
	return b.Service.FindRecordsByUser(ctx, userID)
}

func (b *InMemBackend) RecordDeviceUsage(ctx context.Context, userID uuid.UUID, deviceID string) error {
	if err := b.reachable(); err != nil {
		return err
	}
	return b.Service.RecordDeviceUsage(ctx, userID, deviceID)
}

func (b *InMemBackend) RevokeDevice(ctx context.Context, userID uuid.UUID, deviceID string) error {
	if err := b.reachable(); err != nil {
		return err
	}
	return b.Service.RevokeDevice(ctx, userID, deviceID)
}
