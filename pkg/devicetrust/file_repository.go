package devicetrust

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FileTrustRepository implements TrustRepository using file-based storage
type FileTrustRepository struct {
	dataDir string
	records map[string]*TrustRecord // Key: "userID:deviceID"
	options TrustRepositoryOptions
	mutex   sync.RWMutex
}

// trustData represents the structure of data stored in the JSON file
type trustData struct {
	Records []*TrustRecord `json:"records"`
}

// NewFileTrustRepository creates a new file-based trust repository
func NewFileTrustRepository(dataDir string, options TrustRepositoryOptions) (*FileTrustRepository, error) {
	// Create data directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	repo := &FileTrustRepository{
		dataDir: dataDir,
		records: make(map[string]*TrustRecord),
		options: options,
	}

	// Load existing data
	if err := repo.load(); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	return repo, nil
}

func (r *FileTrustRepository) filePath() string {
	return filepath.Join(r.dataDir, "trust_records.json")
}

// load reads records from the JSON file. Caller must not hold the mutex.
func (r *FileTrustRepository) load() error {
	data, err := os.ReadFile(r.filePath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var stored trustData
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("corrupt trust record file: %w", err)
	}

	for _, record := range stored.Records {
		r.records[recordKey(record.UserID, record.DeviceID)] = record
	}
	return nil
}

// save writes records to the JSON file. Caller must hold the mutex.
func (r *FileTrustRepository) save() error {
	stored := trustData{
		Records: make([]*TrustRecord, 0, len(r.records)),
	}
	for _, record := range r.records {
		stored.Records = append(stored.Records, record)
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(r.filePath(), data, 0644)
}

// GetTrustRecord retrieves a trust record by user and device
func (r *FileTrustRepository) GetTrustRecord(ctx context.Context, userID uuid.UUID, deviceID string) (TrustRecord, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	record, exists := r.records[recordKey(userID, deviceID)]
	if !exists {
		return TrustRecord{}, ErrRecordNotFound
	}

	return *record, nil
}

// UpsertTrustRecord creates or replaces the record keyed on (user_id, device_id)
func (r *FileTrustRepository) UpsertTrustRecord(ctx context.Context, record TrustRecord) (TrustRecord, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	key := recordKey(record.UserID, record.DeviceID)
	now := time.Now().UTC()

	existing, exists := r.records[key]
	if exists {
		record.CreatedAt = existing.CreatedAt
		if existing.Revoked {
			record.Revoked = true
		}
	} else {
		record.CreatedAt = now
	}
	record.LastModifiedAt = now

	recordCopy := record
	r.records[key] = &recordCopy

	if err := r.save(); err != nil {
		if exists {
			r.records[key] = existing
		} else {
			delete(r.records, key)
		}
		return TrustRecord{}, fmt.Errorf("failed to save: %w", err)
	}

	return record, nil
}

// FindRecordsByUser returns all trust records for a user
func (r *FileTrustRepository) FindRecordsByUser(ctx context.Context, userID uuid.UUID) ([]TrustRecord, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	records := make([]TrustRecord, 0)
	for _, record := range r.records {
		if record.UserID == userID {
			records = append(records, *record)
		}
	}
	return records, nil
}

// RevokeDevice sets revoked=true on the record
func (r *FileTrustRepository) RevokeDevice(ctx context.Context, userID uuid.UUID, deviceID string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	key := recordKey(userID, deviceID)
	record, exists := r.records[key]
	if !exists {
		return ErrRecordNotFound
	}

	previous := *record
	record.Revoked = true
	record.LastModifiedAt = time.Now().UTC()

	if err := r.save(); err != nil {
		*record = previous
		return fmt.Errorf("failed to save: %w", err)
	}
	return nil
}

// UpdateLastUsed updates the last-used timestamp only
func (r *FileTrustRepository) UpdateLastUsed(ctx context.Context, userID uuid.UUID, deviceID string, lastUsed time.Time) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	key := recordKey(userID, deviceID)
	record, exists := r.records[key]
	if !exists {
		return ErrRecordNotFound
	}

	previous := record.LastUsedAt
	record.LastUsedAt = lastUsed

	if err := r.save(); err != nil {
		record.LastUsedAt = previous
		return fmt.Errorf("failed to save: %w", err)
	}
	return nil
}

// DeleteTrustRecord removes the record entirely
func (r *FileTrustRepository) DeleteTrustRecord(ctx context.Context, userID uuid.UUID, deviceID string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	key := recordKey(userID, deviceID)
	record, exists := r.records[key]
	if !exists {
		return ErrRecordNotFound
	}

	delete(r.records, key)

	if err := r.save(); err != nil {
		r.records[key] = record
		return fmt.Errorf("failed to save: %w", err)
	}
	return nil
}
