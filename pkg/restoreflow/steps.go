package restoreflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/carelock/device-trust/pkg/audit"
	"github.com/carelock/device-trust/pkg/biometric"
	"github.com/carelock/device-trust/pkg/devicetrust"
	"github.com/carelock/device-trust/pkg/identity"
)

// wipeLocalTrust clears the credential pair and the local biometric
// flag, and emits one credential_wipe audit entry. The device
// identifier survives the wipe.
func wipeLocalTrust(ctx context.Context, flowContext *FlowContext, reason string) {
	if err := flowContext.Services.Store.ClearCredentials(ctx); err != nil {
		slog.Error("Failed to clear credentials", "err", err)
	}
	if err := flowContext.Services.Store.ClearBiometricEnabled(ctx); err != nil {
		slog.Error("Failed to clear local biometric flag", "err", err)
	}

	flowContext.Result.WipedCredentials = true

	if err := flowContext.Services.Sink.Append(ctx, audit.Event{
		UserID:   flowContext.UserID,
		DeviceID: flowContext.DeviceID,
		Action:   audit.ActionCredentialWipe,
		Outcome:  reason,
	}); err != nil {
		slog.Error("Failed to append audit event", "err", err)
	}
}

// CredentialPresenceStep loads the device identifier and the stored
// credential pair. No credentials means no session: login required.
type CredentialPresenceStep struct{}

func NewCredentialPresenceStep() *CredentialPresenceStep {
	return &CredentialPresenceStep{}
}

func (s *CredentialPresenceStep) Name() string {
	return "credential_presence"
}

func (s *CredentialPresenceStep) Order() int {
	return OrderCredentialPresence
}

func (s *CredentialPresenceStep) ShouldSkip(ctx context.Context, flowContext *FlowContext) bool {
	return false // Always check stored credentials
}

func (s *CredentialPresenceStep) Execute(ctx context.Context, flowContext *FlowContext) (*StepResult, error) {
	deviceID, err := flowContext.Services.Store.EnsureDeviceID(ctx)
	if err != nil {
		return nil, err
	}
	flowContext.DeviceID = deviceID
	flowContext.Result.DeviceID = deviceID

	creds, err := flowContext.Services.Store.GetCredentials(ctx)
	if err != nil || creds.IsZero() {
		slog.Info("No stored credentials, login required", "deviceID", deviceID)
		flowContext.Result.Outcome = OutcomeLoginRequired
		flowContext.Result.Reason = "no stored credentials"
		return &StepResult{EarlyReturn: true}, nil
	}

	flowContext.Credentials = creds
	return &StepResult{Continue: true}, nil
}

// SessionRecoveryStep validates or recovers the backend session using
// the refresh credential. An invalid session wipes local credentials;
// an unreachable backend fails closed without wiping.
type SessionRecoveryStep struct{}

func NewSessionRecoveryStep() *SessionRecoveryStep {
	return &SessionRecoveryStep{}
}

func (s *SessionRecoveryStep) Name() string {
	return "session_recovery"
}

func (s *SessionRecoveryStep) Order() int {
	return OrderSessionRecovery
}

func (s *SessionRecoveryStep) ShouldSkip(ctx context.Context, flowContext *FlowContext) bool {
	return false // Always validate the session
}

func (s *SessionRecoveryStep) Execute(ctx context.Context, flowContext *FlowContext) (*StepResult, error) {
	access, err := flowContext.Services.Backend.ValidateOrRecoverSession(ctx, flowContext.Credentials.RefreshCredential)
	if err != nil {
		if errors.Is(err, identity.ErrBackendUnavailable) {
			// Cannot confirm the session either way: fail closed but
			// keep credentials so the next start can retry.
			slog.Warn("Backend unreachable during session recovery", "deviceID", flowContext.DeviceID)
			flowContext.Result.Outcome = OutcomeLoginRequired
			flowContext.Result.Reason = "backend unavailable"
			return &StepResult{EarlyReturn: true}, nil
		}

		slog.Info("Session recovery failed, wiping credentials", "deviceID", flowContext.DeviceID, "err", err)
		wipeLocalTrust(ctx, flowContext, "session invalid")
		flowContext.Result.Outcome = OutcomeLoginRequired
		flowContext.Result.Reason = "session invalid"
		return &StepResult{EarlyReturn: true}, nil
	}

	// The fresh access credential lives only in flow state. The stored
	// pair is left untouched so the fingerprint check below still sees
	// the credential the device enrolled with.
	flowContext.RecoveredAccess = access

	return &StepResult{Continue: true}, nil
}

// TrustRecordFetchStep fetches the device trust record and enforces
// revocation. An absent or revoked record triggers an unconditional,
// immediate wipe; there is no grace period.
type TrustRecordFetchStep struct{}

func NewTrustRecordFetchStep() *TrustRecordFetchStep {
	return &TrustRecordFetchStep{}
}

func (s *TrustRecordFetchStep) Name() string {
	return "trust_record_fetch"
}

func (s *TrustRecordFetchStep) Order() int {
	return OrderTrustRecordFetch
}

func (s *TrustRecordFetchStep) ShouldSkip(ctx context.Context, flowContext *FlowContext) bool {
	return false // Always enforce the backend record
}

func (s *TrustRecordFetchStep) Execute(ctx context.Context, flowContext *FlowContext) (*StepResult, error) {
	record, err := flowContext.Services.Backend.GetDeviceRecord(ctx, flowContext.UserID, flowContext.DeviceID)
	if err != nil {
		if errors.Is(err, identity.ErrBackendUnavailable) {
			slog.Warn("Backend unreachable during trust check", "deviceID", flowContext.DeviceID)
			flowContext.Result.Outcome = OutcomeLoginRequired
			flowContext.Result.Reason = "backend unavailable"
			return &StepResult{EarlyReturn: true}, nil
		}
		if errors.Is(err, devicetrust.ErrRecordNotFound) {
			slog.Info("No trust record for device, wiping credentials", "deviceID", flowContext.DeviceID)
			wipeLocalTrust(ctx, flowContext, "record absent")
			flowContext.Result.Outcome = OutcomeLoginRequired
			flowContext.Result.Reason = "trust record absent"
			return &StepResult{EarlyReturn: true}, nil
		}
		return nil, err
	}

	if record.Revoked {
		slog.Warn("Device revoked, wiping credentials", "userID", flowContext.UserID, "deviceID", flowContext.DeviceID)
		wipeLocalTrust(ctx, flowContext, "device revoked")
		if err := flowContext.Services.Sink.Append(ctx, audit.Event{
			UserID:   flowContext.UserID,
			DeviceID: flowContext.DeviceID,
			Action:   audit.ActionRevocationEnforced,
			Outcome:  "login_required",
		}); err != nil {
			slog.Error("Failed to append audit event", "err", err)
		}
		flowContext.Result.Outcome = OutcomeLoginRequired
		flowContext.Result.Reason = "device revoked"
		return &StepResult{EarlyReturn: true}, nil
	}

	flowContext.Record = &record
	return &StepResult{Continue: true}, nil
}

// FingerprintVerificationStep recomputes the fingerprint of the current
// access credential bound to this device and compares it to the stored
// one. A mismatch is a compromise signal: wipe and require login.
type FingerprintVerificationStep struct{}

func NewFingerprintVerificationStep() *FingerprintVerificationStep {
	return &FingerprintVerificationStep{}
}

func (s *FingerprintVerificationStep) Name() string {
	return "fingerprint_verification"
}

func (s *FingerprintVerificationStep) Order() int {
	return OrderFingerprintVerification
}

func (s *FingerprintVerificationStep) ShouldSkip(ctx context.Context, flowContext *FlowContext) bool {
	// Nothing to verify before the device ever enrolled
	return flowContext.Record == nil || flowContext.Record.TokenFingerprint == ""
}

func (s *FingerprintVerificationStep) Execute(ctx context.Context, flowContext *FlowContext) (*StepResult, error) {
	if devicetrust.FingerprintMatches(flowContext.Record.TokenFingerprint, flowContext.Credentials.AccessCredential, flowContext.DeviceID) {
		return &StepResult{Continue: true}, nil
	}

	slog.Warn("Token fingerprint mismatch, treating as compromise",
		"userID", flowContext.UserID,
		"deviceID", flowContext.DeviceID)

	if err := flowContext.Services.Sink.Append(ctx, audit.Event{
		UserID:   flowContext.UserID,
		DeviceID: flowContext.DeviceID,
		Action:   audit.ActionFingerprintMismatch,
		Outcome:  "login_required",
	}); err != nil {
		slog.Error("Failed to append audit event", "err", err)
	}

	wipeLocalTrust(ctx, flowContext, "fingerprint mismatch")
	flowContext.Result.Outcome = OutcomeLoginRequired
	flowContext.Result.Reason = "fingerprint mismatch"
	return &StepResult{EarlyReturn: true}, nil
}

// BiometricChallengeStep runs the unlock challenge when the backend
// record has biometric enabled. The challenge is strictly read-only: a
// failure keeps credentials intact and never re-triggers setup.
type BiometricChallengeStep struct {
	reason string
}

func NewBiometricChallengeStep(reason string) *BiometricChallengeStep {
	return &BiometricChallengeStep{reason: reason}
}

func (s *BiometricChallengeStep) Name() string {
	return "biometric_challenge"
}

func (s *BiometricChallengeStep) Order() int {
	return OrderBiometricChallenge
}

func (s *BiometricChallengeStep) ShouldSkip(ctx context.Context, flowContext *FlowContext) bool {
	return flowContext.Record == nil || !flowContext.Record.BiometricEnabled
}

func (s *BiometricChallengeStep) Execute(ctx context.Context, flowContext *FlowContext) (*StepResult, error) {
	outcome := flowContext.Services.Prompt.Challenge(ctx, biometric.ModeUnlock, s.reason)
	if outcome == biometric.ChallengeSuccess {
		return &StepResult{Continue: true}, nil
	}

	slog.Info("Biometric unlock did not succeed",
		"userID", flowContext.UserID,
		"deviceID", flowContext.DeviceID,
		"outcome", string(outcome))

	if err := flowContext.Services.Sink.Append(ctx, audit.Event{
		UserID:   flowContext.UserID,
		DeviceID: flowContext.DeviceID,
		Action:   audit.ActionBiometricUnlock,
		Outcome:  string(outcome),
	}); err != nil {
		slog.Error("Failed to append audit event", "err", err)
	}

	// Credentials are retained: the caller offers retry or password fallback
	flowContext.Result.Outcome = OutcomeBiometricFailed
	flowContext.Result.Reason = string(outcome)
	return &StepResult{EarlyReturn: true}, nil
}

// SuccessRecordingStep updates the last-used timestamp on the record,
// the local last-activity timestamp, and records one audit entry.
type SuccessRecordingStep struct{}

func NewSuccessRecordingStep() *SuccessRecordingStep {
	return &SuccessRecordingStep{}
}

func (s *SuccessRecordingStep) Name() string {
	return "success_recording"
}

func (s *SuccessRecordingStep) Order() int {
	return OrderSuccessRecording
}

func (s *SuccessRecordingStep) ShouldSkip(ctx context.Context, flowContext *FlowContext) bool {
	return false // Always record a successful restoration
}

func (s *SuccessRecordingStep) Execute(ctx context.Context, flowContext *FlowContext) (*StepResult, error) {
	if err := flowContext.Services.Backend.RecordDeviceUsage(ctx, flowContext.UserID, flowContext.DeviceID); err != nil {
		// Don't fail the restoration if we can't update the last-used time
		slog.Error("Failed to record device usage", "err", err, "deviceID", flowContext.DeviceID)
	}

	if err := flowContext.Services.Store.SetLastActivity(ctx, time.Now().UTC()); err != nil {
		slog.Error("Failed to update last activity", "err", err)
	}

	if err := flowContext.Services.Sink.Append(ctx, audit.Event{
		UserID:   flowContext.UserID,
		DeviceID: flowContext.DeviceID,
		Action:   audit.ActionSessionRestore,
		Outcome:  "success",
	}); err != nil {
		slog.Error("Failed to append audit event", "err", err)
	}

	flowContext.Result.Outcome = OutcomeSuccess
	flowContext.Result.AccessCredential = flowContext.RecoveredAccess
	return &StepResult{Continue: true}, nil
}
