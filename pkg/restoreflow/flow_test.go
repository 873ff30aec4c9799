package restoreflow

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelock/device-trust/pkg/audit"
	"github.com/carelock/device-trust/pkg/biometric"
	"github.com/carelock/device-trust/pkg/devicetrust"
	"github.com/carelock/device-trust/pkg/identity"
	"github.com/carelock/device-trust/pkg/securestore"
)

type flowFixture struct {
	store   *securestore.InMemSecureStore
	backend *identity.InMemBackend
	prompt  *biometric.ScriptedPrompt
	sink    *audit.MemorySink
	userID  uuid.UUID
}

func newFlowFixture(t *testing.T) *flowFixture {
	t.Helper()
	return &flowFixture{
		store:   securestore.NewInMemSecureStore(),
		backend: identity.NewInMemBackend(identity.NewTokenService("test-secret", "carelock", "carelock-app")),
		prompt:  biometric.NewScriptedPrompt(true),
		sink:    audit.NewMemorySink(),
		userID:  uuid.New(),
	}
}

func (f *flowFixture) services() *ServiceDependencies {
	return &ServiceDependencies{
		Store:   f.store,
		Backend: f.backend,
		Prompt:  f.prompt,
		Sink:    f.sink,
	}
}

// signInAndEnroll seeds the fixture the way a completed enrollment
// leaves it: credentials in the store, a backend record with biometric
// enabled and the fingerprint bound to the stored access credential.
func (f *flowFixture) signInAndEnroll(t *testing.T, ctx context.Context) (string, securestore.Credentials) {
	t.Helper()

	deviceID, err := f.store.EnsureDeviceID(ctx)
	require.NoError(t, err)

	creds, err := f.backend.SignIn(ctx, f.userID)
	require.NoError(t, err)
	require.NoError(t, f.store.SetCredentials(ctx, creds))
	require.NoError(t, f.store.SetBiometricEnabled(ctx, true))

	_, err = f.backend.UpsertDeviceRecord(ctx, devicetrust.TrustRecord{
		UserID:           f.userID,
		DeviceID:         deviceID,
		BiometricEnabled: true,
		Trusted:          true,
		TokenFingerprint: devicetrust.TokenFingerprint(creds.AccessCredential, deviceID),
	})
	require.NoError(t, err)

	return deviceID, creds
}

func TestRestoreFlow_FreshDevice_LoginRequired(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t)

	result := NewDefaultRestoreFlow(f.services()).Execute(ctx, f.userID)

	assert.Equal(t, OutcomeLoginRequired, result.Outcome)
	assert.False(t, result.WipedCredentials)
	assert.NotEmpty(t, result.DeviceID, "device ID is created even when login is required")
}

func TestRestoreFlow_EnrolledDevice_Success(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t)
	deviceID, _ := f.signInAndEnroll(t, ctx)

	f.prompt = biometric.NewScriptedPrompt(true, biometric.ChallengeSuccess)

	result := NewDefaultRestoreFlow(f.services()).Execute(ctx, f.userID)

	assert.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Equal(t, deviceID, result.DeviceID)
	assert.NotEmpty(t, result.AccessCredential)
	assert.False(t, result.WipedCredentials)

	calls := f.prompt.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, biometric.ModeUnlock, calls[0].Mode)

	record, err := f.backend.GetDeviceRecord(ctx, f.userID, deviceID)
	require.NoError(t, err)
	assert.False(t, record.LastUsedAt.IsZero(), "last-used timestamp is recorded")
}

func TestRestoreFlow_ChallengeCancelled_BiometricFailed(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t)
	_, creds := f.signInAndEnroll(t, ctx)

	f.prompt = biometric.NewScriptedPrompt(true, biometric.ChallengeCancelled)

	result := NewDefaultRestoreFlow(f.services()).Execute(ctx, f.userID)

	assert.Equal(t, OutcomeBiometricFailed, result.Outcome)
	assert.False(t, result.WipedCredentials)

	// Credentials survive a failed challenge so the caller can retry
	stored, err := f.store.GetCredentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, creds, stored)
}

func TestRestoreFlow_RevokedDevice_WipesCredentials(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t)
	deviceID, _ := f.signInAndEnroll(t, ctx)

	require.NoError(t, f.backend.RevokeDevice(ctx, f.userID, deviceID))

	result := NewDefaultRestoreFlow(f.services()).Execute(ctx, f.userID)

	assert.Equal(t, OutcomeLoginRequired, result.Outcome)
	assert.True(t, result.WipedCredentials)

	_, err := f.store.GetCredentials(ctx)
	assert.ErrorIs(t, err, securestore.ErrKeyNotFound)

	_, err = f.store.GetBiometricEnabled(ctx)
	assert.ErrorIs(t, err, securestore.ErrKeyNotFound, "local biometric flag is cleared with the credentials")

	var sawEnforcement bool
	for _, event := range f.sink.EventsForUser(f.userID) {
		if event.Action == audit.ActionRevocationEnforced {
			sawEnforcement = true
		}
	}
	assert.True(t, sawEnforcement, "revocation enforcement is audited")
}

func TestRestoreFlow_RecordAbsent_WipesCredentials(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t)

	// Credentials without any backend record for this device
	creds, err := f.backend.SignIn(ctx, f.userID)
	require.NoError(t, err)
	require.NoError(t, f.store.SetCredentials(ctx, creds))

	result := NewDefaultRestoreFlow(f.services()).Execute(ctx, f.userID)

	assert.Equal(t, OutcomeLoginRequired, result.Outcome)
	assert.True(t, result.WipedCredentials)
}

func TestRestoreFlow_InvalidRefreshCredential_WipesCredentials(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t)
	f.signInAndEnroll(t, ctx)

	creds, err := f.store.GetCredentials(ctx)
	require.NoError(t, err)
	creds.RefreshCredential = "not-a-credential"
	require.NoError(t, f.store.SetCredentials(ctx, creds))

	result := NewDefaultRestoreFlow(f.services()).Execute(ctx, f.userID)

	assert.Equal(t, OutcomeLoginRequired, result.Outcome)
	assert.True(t, result.WipedCredentials)

	_, err = f.store.GetCredentials(ctx)
	assert.ErrorIs(t, err, securestore.ErrKeyNotFound)
}

func TestRestoreFlow_BackendUnavailable_FailsClosedWithoutWipe(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t)
	f.signInAndEnroll(t, ctx)

	f.backend.SetAvailable(false)

	result := NewDefaultRestoreFlow(f.services()).Execute(ctx, f.userID)

	assert.Equal(t, OutcomeLoginRequired, result.Outcome)
	assert.False(t, result.WipedCredentials, "an outage is not proof of invalidity")

	stored, err := f.store.GetCredentials(ctx)
	require.NoError(t, err)
	assert.False(t, stored.IsZero(), "credentials survive a backend outage")
}

func TestRestoreFlow_FingerprintMismatch_WipesCredentials(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t)
	f.signInAndEnroll(t, ctx)

	// Simulate a credential lifted from another device: valid session,
	// but not the credential this device enrolled with.
	stolen, err := f.backend.SignIn(ctx, f.userID)
	require.NoError(t, err)
	require.NoError(t, f.store.SetCredentials(ctx, stolen))

	result := NewDefaultRestoreFlow(f.services()).Execute(ctx, f.userID)

	assert.Equal(t, OutcomeLoginRequired, result.Outcome)
	assert.True(t, result.WipedCredentials)
	assert.Equal(t, "fingerprint mismatch", result.Reason)

	_, err = f.store.GetCredentials(ctx)
	assert.ErrorIs(t, err, securestore.ErrKeyNotFound)

	var sawMismatch bool
	for _, event := range f.sink.EventsForUser(f.userID) {
		if event.Action == audit.ActionFingerprintMismatch {
			sawMismatch = true
		}
	}
	assert.True(t, sawMismatch)
}

func TestRestoreFlow_NoFingerprintOnRecord_SkipsVerification(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t)

	deviceID, err := f.store.EnsureDeviceID(ctx)
	require.NoError(t, err)

	creds, err := f.backend.SignIn(ctx, f.userID)
	require.NoError(t, err)
	require.NoError(t, f.store.SetCredentials(ctx, creds))

	// Trusted record without biometric and without a fingerprint, as
	// left by a plain password sign-in.
	_, err = f.backend.UpsertDeviceRecord(ctx, devicetrust.TrustRecord{
		UserID:   f.userID,
		DeviceID: deviceID,
		Trusted:  true,
	})
	require.NoError(t, err)

	result := NewDefaultRestoreFlow(f.services()).Execute(ctx, f.userID)

	assert.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Empty(t, f.prompt.Calls(), "no challenge when biometric is not enabled")
}

func TestRestoreFlow_UnlockDoesNotMutateRecord(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t)
	deviceID, _ := f.signInAndEnroll(t, ctx)

	before, err := f.backend.GetDeviceRecord(ctx, f.userID, deviceID)
	require.NoError(t, err)

	f.prompt = biometric.NewScriptedPrompt(true, biometric.ChallengeSuccess)
	result := NewDefaultRestoreFlow(f.services()).Execute(ctx, f.userID)
	require.Equal(t, OutcomeSuccess, result.Outcome)

	after, err := f.backend.GetDeviceRecord(ctx, f.userID, deviceID)
	require.NoError(t, err)

	assert.Equal(t, before.BiometricEnabled, after.BiometricEnabled)
	assert.Equal(t, before.Trusted, after.Trusted)
	assert.Equal(t, before.Revoked, after.Revoked)
	assert.Equal(t, before.TokenFingerprint, after.TokenFingerprint)
}

func TestRestoreFlow_SuccessIsRepeatable(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t)
	f.signInAndEnroll(t, ctx)

	for i := 0; i < 3; i++ {
		f.prompt = biometric.NewScriptedPrompt(true, biometric.ChallengeSuccess)
		result := NewDefaultRestoreFlow(f.services()).Execute(ctx, f.userID)
		require.Equal(t, OutcomeSuccess, result.Outcome, "restore %d", i+1)
	}
}

func TestRestoreFlow_WithoutBiometric_SkipsChallenge(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t)
	f.signInAndEnroll(t, ctx)

	result := NewRestoreFlowWithoutBiometric(f.services()).Execute(ctx, f.userID)

	assert.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Empty(t, f.prompt.Calls())
}

func TestRestoreFlow_StepOrdering(t *testing.T) {
	registry := NewStepRegistry()
	registry.AddStep(NewSuccessRecordingStep())
	registry.AddStep(NewCredentialPresenceStep())
	registry.AddStep(NewBiometricChallengeStep("unlock"))

	steps := registry.GetOrderedSteps()
	require.Len(t, steps, 3)
	assert.Equal(t, "credential_presence", steps[0].Name())
	assert.Equal(t, "biometric_challenge", steps[1].Name())
	assert.Equal(t, "success_recording", steps[2].Name())
}

func TestRestoreFlow_LastActivityUpdatedOnSuccess(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t)
	f.signInAndEnroll(t, ctx)

	f.prompt = biometric.NewScriptedPrompt(true, biometric.ChallengeSuccess)
	before := time.Now().UTC()
	result := NewDefaultRestoreFlow(f.services()).Execute(ctx, f.userID)
	require.Equal(t, OutcomeSuccess, result.Outcome)

	at, err := f.store.GetLastActivity(ctx)
	require.NoError(t, err)
	assert.False(t, at.Before(before.Add(-time.Second)))
}
