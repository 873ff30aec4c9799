package devicetrust

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresTrustRepository implements TrustRepository using PostgreSQL
type PostgresTrustRepository struct {
	db      DBTX
	options TrustRepositoryOptions
}

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// NewPostgresTrustRepository creates a new PostgreSQL trust repository
func NewPostgresTrustRepository(db DBTX) *PostgresTrustRepository {
	return &PostgresTrustRepository{
		db:      db,
		options: DefaultTrustRepositoryOptions(),
	}
}

// NewPostgresTrustRepositoryWithOptions creates a new PostgreSQL trust repository with custom options
func NewPostgresTrustRepositoryWithOptions(db DBTX, options TrustRepositoryOptions) *PostgresTrustRepository {
	return &PostgresTrustRepository{
		db:      db,
		options: options,
	}
}

// GetTrustRecord retrieves a trust record by user and device
func (r *PostgresTrustRepository) GetTrustRecord(ctx context.Context, userID uuid.UUID, deviceID string) (TrustRecord, error) {
	query := `
		SELECT user_id, device_id, biometric_enabled, trusted, revoked,
		       COALESCE(token_fingerprint, ''), last_used_at, created_at, last_modified_at
		FROM device_trust_record
		WHERE user_id = $1 AND device_id = $2`

	var record TrustRecord
	err := r.db.QueryRow(ctx, query, userID, deviceID).Scan(
		&record.UserID,
		&record.DeviceID,
		&record.BiometricEnabled,
		&record.Trusted,
		&record.Revoked,
		&record.TokenFingerprint,
		&record.LastUsedAt,
		&record.CreatedAt,
		&record.LastModifiedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return TrustRecord{}, ErrRecordNotFound
		}
		return TrustRecord{}, fmt.Errorf("failed to get trust record: %w", err)
	}

	return record, nil
}

// UpsertTrustRecord creates or replaces the record keyed on (user_id, device_id).
// Revocation is sticky: an upsert never clears revoked.
func (r *PostgresTrustRepository) UpsertTrustRecord(ctx context.Context, record TrustRecord) (TrustRecord, error) {
	now := time.Now().UTC()

	query := `
		INSERT INTO device_trust_record
			(user_id, device_id, biometric_enabled, trusted, revoked,
			 token_fingerprint, last_used_at, created_at, last_modified_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $8)
		ON CONFLICT (user_id, device_id) DO UPDATE SET
			biometric_enabled = EXCLUDED.biometric_enabled,
			trusted           = EXCLUDED.trusted,
			revoked           = device_trust_record.revoked OR EXCLUDED.revoked,
			token_fingerprint = EXCLUDED.token_fingerprint,
			last_used_at      = EXCLUDED.last_used_at,
			last_modified_at  = EXCLUDED.last_modified_at
		RETURNING user_id, device_id, biometric_enabled, trusted, revoked,
			COALESCE(token_fingerprint, ''), last_used_at, created_at, last_modified_at`

	lastUsed := record.LastUsedAt
	if lastUsed.IsZero() {
		lastUsed = now
	}

	var saved TrustRecord
	err := r.db.QueryRow(ctx, query,
		record.UserID,
		record.DeviceID,
		record.BiometricEnabled,
		record.Trusted,
		record.Revoked,
		record.TokenFingerprint,
		lastUsed,
		now,
	).Scan(
		&saved.UserID,
		&saved.DeviceID,
		&saved.BiometricEnabled,
		&saved.Trusted,
		&saved.Revoked,
		&saved.TokenFingerprint,
		&saved.LastUsedAt,
		&saved.CreatedAt,
		&saved.LastModifiedAt,
	)
	if err != nil {
		return TrustRecord{}, fmt.Errorf("failed to upsert trust record: %w", err)
	}

	return saved, nil
}

// FindRecordsByUser returns all trust records for a user
func (r *PostgresTrustRepository) FindRecordsByUser(ctx context.Context, userID uuid.UUID) ([]TrustRecord, error) {
	query := `
		SELECT user_id, device_id, biometric_enabled, trusted, revoked,
		       COALESCE(token_fingerprint, ''), last_used_at, created_at, last_modified_at
		FROM device_trust_record
		WHERE user_id = $1
		ORDER BY last_used_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trust records: %w", err)
	}
	defer rows.Close()

	var records []TrustRecord
	for rows.Next() {
		var record TrustRecord
		err := rows.Scan(
			&record.UserID,
			&record.DeviceID,
			&record.BiometricEnabled,
			&record.Trusted,
			&record.Revoked,
			&record.TokenFingerprint,
			&record.LastUsedAt,
			&record.CreatedAt,
			&record.LastModifiedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trust record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trust records: %w", err)
	}

	return records, nil
}

// RevokeDevice sets revoked=true on the record
func (r *PostgresTrustRepository) RevokeDevice(ctx context.Context, userID uuid.UUID, deviceID string) error {
	query := `
		UPDATE device_trust_record
		SET revoked = TRUE, last_modified_at = $3
		WHERE user_id = $1 AND device_id = $2`

	tag, err := r.db.Exec(ctx, query, userID, deviceID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to revoke device: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// UpdateLastUsed updates the last-used timestamp only
func (r *PostgresTrustRepository) UpdateLastUsed(ctx context.Context, userID uuid.UUID, deviceID string, lastUsed time.Time) error {
	query := `
		UPDATE device_trust_record
		SET last_used_at = $3
		WHERE user_id = $1 AND device_id = $2`

	tag, err := r.db.Exec(ctx, query, userID, deviceID, lastUsed)
	if err != nil {
		return fmt.Errorf("failed to update last used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// DeleteTrustRecord removes the record entirely
func (r *PostgresTrustRepository) DeleteTrustRecord(ctx context.Context, userID uuid.UUID, deviceID string) error {
	query := `DELETE FROM device_trust_record WHERE user_id = $1 AND device_id = $2`

	tag, err := r.db.Exec(ctx, query, userID, deviceID)
	if err != nil {
		return fmt.Errorf("failed to delete trust record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}
