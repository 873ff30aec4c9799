package devicetrust

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NoOpTrustRepository is a no-op implementation of TrustRepository.
// This allows the trust engine to be created without storage when
// device trust is not needed; every lookup reports no record, which
// makes trust checks fail closed.
type NoOpTrustRepository struct{}

// NewNoOpTrustRepository creates a new no-op trust repository.
func NewNoOpTrustRepository() TrustRepository {
	return &NoOpTrustRepository{}
}

func (r *NoOpTrustRepository) GetTrustRecord(ctx context.Context, userID uuid.UUID, deviceID string) (TrustRecord, error) {
	return TrustRecord{}, ErrRecordNotFound
}

func (r *NoOpTrustRepository) UpsertTrustRecord(ctx context.Context, record TrustRecord) (TrustRecord, error) {
	return TrustRecord{}, fmt.Errorf("trust storage not configured")
}

func (r *NoOpTrustRepository) FindRecordsByUser(ctx context.Context, userID uuid.UUID) ([]TrustRecord, error) {
	return []TrustRecord{}, nil
}

func (r *NoOpTrustRepository) RevokeDevice(ctx context.Context, userID uuid.UUID, deviceID string) error {
	return ErrRecordNotFound
}

func (r *NoOpTrustRepository) UpdateLastUsed(ctx context.Context, userID uuid.UUID, deviceID string, lastUsed time.Time) error {
	return ErrRecordNotFound
}

func (r *NoOpTrustRepository) DeleteTrustRecord(ctx context.Context, userID uuid.UUID, deviceID string) error {
	return ErrRecordNotFound
}
