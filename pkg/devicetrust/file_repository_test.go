package devicetrust

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupFileRepo(t *testing.T) (*FileTrustRepository, string) {
	tempDir := t.TempDir()

	options := DefaultTrustRepositoryOptions()
	repo, err := NewFileTrustRepository(tempDir, options)
	require.NoError(t, err)
	return repo, tempDir
}

func TestFileTrustRepository_UpsertAndGet(t *testing.T) {
	repo, _ := setupFileRepo(t)
	ctx := context.Background()

	userID := uuid.New()
	record := TrustRecord{
		UserID:           userID,
		DeviceID:         "device-1",
		BiometricEnabled: true,
		Trusted:          true,
		TokenFingerprint: "fp-1",
	}

	_, err := repo.UpsertTrustRecord(ctx, record)
	require.NoError(t, err)

	got, err := repo.GetTrustRecord(ctx, userID, "device-1")
	require.NoError(t, err)
	assert.True(t, got.BiometricEnabled)
	assert.Equal(t, "fp-1", got.TokenFingerprint)
}

func TestFileTrustRepository_PersistsAcrossReopen(t *testing.T) {
	repo, dataDir := setupFileRepo(t)
	ctx := context.Background()

	userID := uuid.New()
	_, err := repo.UpsertTrustRecord(ctx, TrustRecord{
		UserID:           userID,
		DeviceID:         "device-1",
		BiometricEnabled: true,
		Trusted:          true,
	})
	require.NoError(t, err)
	require.NoError(t, repo.RevokeDevice(ctx, userID, "device-1"))

	// Reopen from disk
	reopened, err := NewFileTrustRepository(dataDir, DefaultTrustRepositoryOptions())
	require.NoError(t, err)

	got, err := reopened.GetTrustRecord(ctx, userID, "device-1")
	require.NoError(t, err)
	assert.True(t, got.Revoked)
	assert.True(t, got.BiometricEnabled)
}

func TestFileTrustRepository_UpsertIsIdempotent(t *testing.T) {
	repo, _ := setupFileRepo(t)
	ctx := context.Background()

	userID := uuid.New()
	record := TrustRecord{
		UserID:           userID,
		DeviceID:         "device-1",
		BiometricEnabled: true,
		Trusted:          true,
	}

	_, err := repo.UpsertTrustRecord(ctx, record)
	require.NoError(t, err)
	_, err = repo.UpsertTrustRecord(ctx, record)
	require.NoError(t, err)

	records, err := repo.FindRecordsByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestFileTrustRepository_Delete(t *testing.T) {
	repo, _ := setupFileRepo(t)
	ctx := context.Background()

	userID := uuid.New()
	_, err := repo.UpsertTrustRecord(ctx, TrustRecord{UserID: userID, DeviceID: "device-1"})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteTrustRecord(ctx, userID, "device-1"))

	_, err = repo.GetTrustRecord(ctx, userID, "device-1")
	assert.ErrorIs(t, err, ErrRecordNotFound)

	err = repo.DeleteTrustRecord(ctx, userID, "device-1")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestNewTrustRepository_Factory(t *testing.T) {
	// inmem needs no configuration
	repo, err := NewTrustRepository("inmem", RepositoryConfig{})
	require.NoError(t, err)
	assert.NotNil(t, repo)

	// file requires a data directory
	_, err = NewTrustRepository("file", RepositoryConfig{})
	assert.Error(t, err)

	// postgres requires a db
	_, err = NewTrustRepository("postgres", RepositoryConfig{})
	assert.Error(t, err)

	// unsupported type
	_, err = NewTrustRepository("mongo", RepositoryConfig{})
	assert.Error(t, err)
}
