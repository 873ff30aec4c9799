package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelock/device-trust/pkg/devicetrust"
)

func setupIdentityService(t *testing.T) *Service {
	tokens := NewTokenService("test-secret", "device-trust-test", "app")
	return NewService(devicetrust.NewInMemTrustRepository(), tokens)
}

func TestService_SignInIssuesCredentialPair(t *testing.T) {
	service := setupIdentityService(t)
	ctx := context.Background()
	userID := uuid.New()

	creds, err := service.SignIn(ctx, userID)
	require.NoError(t, err)
	assert.NotEmpty(t, creds.AccessCredential)
	assert.NotEmpty(t, creds.RefreshCredential)
	assert.NotEqual(t, creds.AccessCredential, creds.RefreshCredential)

	// Access credential belongs to the user's session
	active, err := service.HasActiveSession(ctx, userID, creds.AccessCredential)
	require.NoError(t, err)
	assert.True(t, active)

	// But not to another user's
	active, err = service.HasActiveSession(ctx, uuid.New(), creds.AccessCredential)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestService_ValidateOrRecoverSession(t *testing.T) {
	service := setupIdentityService(t)
	ctx := context.Background()
	userID := uuid.New()

	creds, err := service.SignIn(ctx, userID)
	require.NoError(t, err)

	// A valid refresh credential yields a fresh access credential
	access, err := service.ValidateOrRecoverSession(ctx, creds.RefreshCredential)
	require.NoError(t, err)
	assert.NotEmpty(t, access)

	active, err := service.HasActiveSession(ctx, userID, access)
	require.NoError(t, err)
	assert.True(t, active)
}

func TestService_RecoveryRejectsAccessCredential(t *testing.T) {
	service := setupIdentityService(t)
	ctx := context.Background()

	creds, err := service.SignIn(ctx, uuid.New())
	require.NoError(t, err)

	// An access credential cannot stand in for a refresh credential
	_, err = service.ValidateOrRecoverSession(ctx, creds.AccessCredential)
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestService_RecoveryRejectsExpiredRefresh(t *testing.T) {
	tokens := NewTokenService("test-secret", "device-trust-test", "app")
	tokens.RefreshExpiry = -time.Minute // Already expired at issuance
	service := NewService(devicetrust.NewInMemTrustRepository(), tokens)
	ctx := context.Background()

	creds, err := service.SignIn(ctx, uuid.New())
	require.NoError(t, err)

	_, err = service.ValidateOrRecoverSession(ctx, creds.RefreshCredential)
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestService_RecoveryRejectsGarbage(t *testing.T) {
	service := setupIdentityService(t)
	ctx := context.Background()

	_, err := service.ValidateOrRecoverSession(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestService_DeviceRecordRoundTrip(t *testing.T) {
	service := setupIdentityService(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := service.GetDeviceRecord(ctx, userID, "device-1")
	assert.ErrorIs(t, err, devicetrust.ErrRecordNotFound)

	_, err = service.UpsertDeviceRecord(ctx, devicetrust.TrustRecord{
		UserID:           userID,
		DeviceID:         "device-1",
		BiometricEnabled: true,
		Trusted:          true,
	})
	require.NoError(t, err)

	record, err := service.GetDeviceRecord(ctx, userID, "device-1")
	require.NoError(t, err)
	assert.True(t, record.BiometricEnabled)

	require.NoError(t, service.RevokeDevice(ctx, userID, "device-1"))
	record, err = service.GetDeviceRecord(ctx, userID, "device-1")
	require.NoError(t, err)
	assert.True(t, record.Revoked)
}

func TestInMemBackend_Unavailability(t *testing.T) {
	tokens := NewTokenService("test-secret", "device-trust-test", "app")
	backend := NewInMemBackend(tokens)
	ctx := context.Background()
	userID := uuid.New()

	backend.SetAvailable(false)

	_, err := backend.GetDeviceRecord(ctx, userID, "device-1")
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	_, err = backend.ValidateOrRecoverSession(ctx, "any")
	assert.ErrorIs(t, err, ErrBackendUnavailable)

	backend.SetAvailable(true)
	_, err = backend.GetDeviceRecord(ctx, userID, "device-1")
	assert.ErrorIs(t, err, devicetrust.ErrRecordNotFound)
}
