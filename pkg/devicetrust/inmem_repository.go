package devicetrust

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemTrustRepository implements TrustRepository using an in-memory map
type InMemTrustRepository struct {
	records map[string]TrustRecord // Key: "userID:deviceID"
	mu      sync.Mutex
	options TrustRepositoryOptions
}

// NewInMemTrustRepository creates a new in-memory trust repository
func NewInMemTrustRepository() *InMemTrustRepository {
	return &InMemTrustRepository{
		records: make(map[string]TrustRecord),
		options: DefaultTrustRepositoryOptions(),
	}
}

// NewInMemTrustRepositoryWithOptions creates a new in-memory trust repository with custom options
func NewInMemTrustRepositoryWithOptions(options TrustRepositoryOptions) *InMemTrustRepository {
	return &InMemTrustRepository{
		records: make(map[string]TrustRecord),
		options: options,
	}
}

func recordKey(userID uuid.UUID, deviceID string) string {
	return userID.String() + ":" + deviceID
}

// GetTrustRecord retrieves a trust record by user and device
func (r *InMemTrustRepository) GetTrustRecord(ctx context.Context, userID uuid.UUID, deviceID string) (TrustRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, exists := r.records[recordKey(userID, deviceID)]
	if !exists {
		slog.Debug("Trust record not found", "userID", userID, "deviceID", deviceID)
		return TrustRecord{}, ErrRecordNotFound
	}

	return record, nil
}

// UpsertTrustRecord creates or replaces the record keyed on (user_id, device_id)
func (r *InMemTrustRepository) UpsertTrustRecord(ctx context.Context, record TrustRecord) (TrustRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := recordKey(record.UserID, record.DeviceID)
	now := time.Now().UTC()

	existing, exists := r.records[key]
	if exists {
		// Keep creation time, revocation stays sticky
		record.CreatedAt = existing.CreatedAt
		if existing.Revoked {
			record.Revoked = true
		}
	} else {
		if r.options.MaxRecordsPerUser > 0 {
			count := 0
			for _, rec := range r.records {
				if rec.UserID == record.UserID {
					count++
				}
			}
			if count >= r.options.MaxRecordsPerUser {
				return TrustRecord{}, fmt.Errorf("max records per user exceeded: %d", r.options.MaxRecordsPerUser)
			}
		}
		record.CreatedAt = now
	}
	record.LastModifiedAt = now

	r.records[key] = record
	slog.Debug("Trust record upserted", "userID", record.UserID, "deviceID", record.DeviceID)
	return record, nil
}

// FindRecordsByUser returns all trust records for a user
func (r *InMemTrustRepository) FindRecordsByUser(ctx context.Context, userID uuid.UUID) ([]TrustRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := make([]TrustRecord, 0)
	for _, record := range r.records {
		if record.UserID == userID {
			records = append(records, record)
		}
	}

	slog.Debug("Found trust records for user", "userID", userID, "recordCount", len(records))
	return records, nil
}

// RevokeDevice sets revoked=true on the record
func (r *InMemTrustRepository) RevokeDevice(ctx context.Context, userID uuid.UUID, deviceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := recordKey(userID, deviceID)
	record, exists := r.records[key]
	if !exists {
		return ErrRecordNotFound
	}

	record.Revoked = true
	record.LastModifiedAt = time.Now().UTC()
	r.records[key] = record

	slog.Info("Device revoked", "userID", userID, "deviceID", deviceID)
	return nil
}

// UpdateLastUsed updates the last-used timestamp only
func (r *InMemTrustRepository) UpdateLastUsed(ctx context.Context, userID uuid.UUID, deviceID string, lastUsed time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := recordKey(userID, deviceID)
	record, exists := r.records[key]
	if !exists {
		return ErrRecordNotFound
	}

	record.LastUsedAt = lastUsed
	r.records[key] = record
	return nil
}

// DeleteTrustRecord removes the record entirely
func (r *InMemTrustRepository) DeleteTrustRecord(ctx context.Context, userID uuid.UUID, deviceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := recordKey(userID, deviceID)
	if _, exists := r.records[key]; !exists {
		return ErrRecordNotFound
	}

	delete(r.records, key)
	slog.Info("Trust record deleted", "userID", userID, "deviceID", deviceID)
	return nil
}
