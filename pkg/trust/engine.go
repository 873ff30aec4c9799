package trust

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/carelock/device-trust/pkg/audit"
	"github.com/carelock/device-trust/pkg/biometric"
	"github.com/carelock/device-trust/pkg/errors"
	"github.com/carelock/device-trust/pkg/identity"
	"github.com/carelock/device-trust/pkg/restoreflow"
	"github.com/carelock/device-trust/pkg/securestore"
)

// Engine decides whether a device is trusted to act for a user without
// re-entering credentials. It drives session restoration, biometric
// enrollment, and the trust check every caller consults before showing
// "enable biometric" vs "unlock with biometric".
type Engine struct {
	store   securestore.SecureStore
	backend identity.Backend
	prompt  biometric.Prompt
	sink    audit.Sink

	setupReason  string
	unlockReason string

	flow *restoreflow.FlowExecutor

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// Option configures an Engine
type Option func(*Engine)

// WithSink sets the audit sink. Defaults to a no-op sink.
func WithSink(sink audit.Sink) Option {
	return func(e *Engine) {
		e.sink = sink
	}
}

// WithSetupReason sets the prompt text shown during enrollment
func WithSetupReason(reason string) Option {
	return func(e *Engine) {
		e.setupReason = reason
	}
}

// WithUnlockReason sets the prompt text shown during unlock
func WithUnlockReason(reason string) Option {
	return func(e *Engine) {
		e.unlockReason = reason
	}
}

// NewEngine creates a trust engine over the given collaborators
func NewEngine(store securestore.SecureStore, backend identity.Backend, prompt biometric.Prompt, opts ...Option) *Engine {
	engine := &Engine{
		store:        store,
		backend:      backend,
		prompt:       prompt,
		sink:         audit.NewNoOpSink(),
		setupReason:  "Enable quick sign-in",
		unlockReason: restoreflow.DefaultUnlockReason,
		inFlight:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(engine)
	}

	engine.flow = restoreflow.NewFlowBuilder().
		AddStep(restoreflow.NewCredentialPresenceStep()).
		AddStep(restoreflow.NewSessionRecoveryStep()).
		AddStep(restoreflow.NewTrustRecordFetchStep()).
		AddStep(restoreflow.NewFingerprintVerificationStep()).
		AddStep(restoreflow.NewBiometricChallengeStep(engine.unlockReason)).
		AddStep(restoreflow.NewSuccessRecordingStep()).
		Build(&restoreflow.ServiceDependencies{
			Store:   store,
			Backend: backend,
			Prompt:  prompt,
			Sink:    engine.sink,
		})

	return engine
}

// guardKey identifies one (user, device) pair for the in-flight marker
func guardKey(userID uuid.UUID, deviceID string) string {
	return fmt.Sprintf("%s:%s", userID, deviceID)
}

// acquire marks an operation in flight for the pair. It returns an
// OPERATION_IN_FLIGHT error when one is already running: restoration
// and enrollment are run-to-completion sequences, never re-entrant.
func (e *Engine) acquire(userID uuid.UUID, deviceID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := guardKey(userID, deviceID)
	if _, held := e.inFlight[key]; held {
		return errors.Newf(errors.ErrCodeOperationInFlight, "operation already in flight for device %s", deviceID)
	}
	e.inFlight[key] = struct{}{}
	return nil
}

func (e *Engine) release(userID uuid.UUID, deviceID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inFlight, guardKey(userID, deviceID))
}

// IsBiometricEnabled reports whether biometric unlock is enabled for
// the user on this device. Every call re-derives the answer from the
// backend record; local state is never trusted on its own, and every
// failure, including an unreachable backend, collapses to false. The
// check is side-effect free.
func (e *Engine) IsBiometricEnabled(ctx context.Context, userID uuid.UUID) bool {
	deviceID, err := e.store.GetDeviceID(ctx)
	if err != nil || deviceID == "" {
		return false
	}

	creds, err := e.store.GetCredentials(ctx)
	if err != nil || creds.AccessCredential == "" {
		return false
	}

	record, err := e.backend.GetDeviceRecord(ctx, userID, deviceID)
	if err != nil {
		// Absent record and unreachable backend both fail closed
		return false
	}
	if record.Revoked {
		return false
	}

	return record.BiometricEnabled
}

// RestoreSession runs the session restoration flow for the user. A
// second call for the same user/device while one is in flight returns
// an OPERATION_IN_FLIGHT error.
func (e *Engine) RestoreSession(ctx context.Context, userID uuid.UUID) (restoreflow.Result, error) {
	deviceID, err := e.store.EnsureDeviceID(ctx)
	if err != nil {
		return restoreflow.Result{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to resolve device identifier")
	}

	if err := e.acquire(userID, deviceID); err != nil {
		return restoreflow.Result{}, err
	}
	defer e.release(userID, deviceID)

	result := e.flow.Execute(ctx, userID)
	slog.Info("Session restoration finished",
		"userID", userID,
		"deviceID", result.DeviceID,
		"outcome", string(result.Outcome))
	return result, nil
}

// WipeLocalTrust clears the credential pair and the local biometric
// flag, leaving the device identifier in place, and records one audit
// event. Used on sign-out and by revocation enforcement.
func (e *Engine) WipeLocalTrust(ctx context.Context, userID uuid.UUID) error {
	deviceID, _ := e.store.GetDeviceID(ctx)

	if err := e.store.ClearCredentials(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to clear credentials")
	}
	if err := e.store.ClearBiometricEnabled(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to clear local biometric flag")
	}

	if err := e.sink.Append(ctx, audit.Event{
		UserID:   userID,
		DeviceID: deviceID,
		Action:   audit.ActionCredentialWipe,
		Outcome:  "wiped",
	}); err != nil {
		slog.Error("Failed to append audit event", "err", err)
	}
	return nil
}

// RevokeDevice marks the device revoked on the backend record.
// Enforcement is lazy: the next restoration or trust check for that
// device observes the flag and wipes local state.
func (e *Engine) RevokeDevice(ctx context.Context, userID uuid.UUID, deviceID string) error {
	if err := e.backend.RevokeDevice(ctx, userID, deviceID); err != nil {
		return errors.Wrap(err, errors.ErrCodeUnavailable, "failed to revoke device")
	}

	slog.Info("Device revoked", "userID", userID, "deviceID", deviceID)
	if err := e.sink.Append(ctx, audit.Event{
		UserID:   userID,
		DeviceID: deviceID,
		Action:   audit.ActionDeviceRevoked,
		Outcome:  "revoked",
	}); err != nil {
		slog.Error("Failed to append audit event", "err", err)
	}
	return nil
}

// AuthorizeAction gates a sensitive action behind an unlock challenge.
// It consults the trust check first: when biometric is not enabled for
// this user/device the call reports false without prompting, and the
// caller routes to password confirmation instead. The challenge runs
// read-only; a failure never triggers enrollment.
func (e *Engine) AuthorizeAction(ctx context.Context, userID uuid.UUID, reason string) bool {
	if !e.IsBiometricEnabled(ctx, userID) {
		return false
	}
	if reason == "" {
		reason = e.unlockReason
	}

	deviceID, _ := e.store.GetDeviceID(ctx)
	outcome := e.prompt.Challenge(ctx, biometric.ModeUnlock, reason)

	if err := e.sink.Append(ctx, audit.Event{
		UserID:   userID,
		DeviceID: deviceID,
		Action:   audit.ActionBiometricUnlock,
		Outcome:  string(outcome),
	}); err != nil {
		slog.Error("Failed to append audit event", "err", err)
	}

	return outcome == biometric.ChallengeSuccess
}
