package trust

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/carelock/device-trust/pkg/audit"
	"github.com/carelock/device-trust/pkg/biometric"
	"github.com/carelock/device-trust/pkg/devicetrust"
	"github.com/carelock/device-trust/pkg/errors"
	"github.com/carelock/device-trust/pkg/securestore"
)

// EnrollOutcome is the terminal result of one enrollment attempt
type EnrollOutcome string

const (
	// EnrollSuccess means biometric unlock is now enabled for this
	// user/device pair.
	EnrollSuccess EnrollOutcome = "success"
	// EnrollHardwareUnavailable means the device has no usable biometric
	// hardware. Nothing was changed.
	EnrollHardwareUnavailable EnrollOutcome = "hardware_unavailable"
	// EnrollAuthFailed means the setup challenge failed or was
	// cancelled. Nothing was changed; the caller may offer a retry.
	EnrollAuthFailed EnrollOutcome = "auth_failed"
	// EnrollBackendError means no active session exists or the backend
	// write failed. Local writes were rolled back.
	EnrollBackendError EnrollOutcome = "backend_error"
)

// EnrollResult carries the outcome of an enrollment attempt
type EnrollResult struct {
	Outcome  EnrollOutcome
	DeviceID string
	Reason   string
}

// Enroll enables biometric unlock for the user on this device as an
// all-or-nothing transaction: capability check, setup challenge,
// active-session check, then credential persist and record upsert. If
// the upsert fails the local writes are rolled back, so no observer
// ever sees the backend enabled while the local credential is absent.
// Repeated enrollment is idempotent; the record is keyed on
// (user, device).
func (e *Engine) Enroll(ctx context.Context, userID uuid.UUID) (EnrollResult, error) {
	deviceID, err := e.store.EnsureDeviceID(ctx)
	if err != nil {
		return EnrollResult{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to resolve device identifier")
	}

	if err := e.acquire(userID, deviceID); err != nil {
		return EnrollResult{}, err
	}
	defer e.release(userID, deviceID)

	result := EnrollResult{DeviceID: deviceID}

	if !e.prompt.IsAvailable(ctx) {
		slog.Info("Enrollment rejected, no biometric hardware", "deviceID", deviceID)
		result.Outcome = EnrollHardwareUnavailable
		result.Reason = "biometric hardware unavailable"
		return result, nil
	}

	outcome := e.prompt.Challenge(ctx, biometric.ModeSetup, e.setupReason)
	if outcome != biometric.ChallengeSuccess {
		slog.Info("Enrollment challenge did not succeed", "deviceID", deviceID, "outcome", string(outcome))
		e.auditEnroll(ctx, userID, deviceID, string(outcome))
		result.Outcome = EnrollAuthFailed
		result.Reason = string(outcome)
		return result, nil
	}

	creds, err := e.store.GetCredentials(ctx)
	if err != nil || creds.IsZero() {
		slog.Info("Enrollment rejected, no stored credentials", "deviceID", deviceID)
		result.Outcome = EnrollBackendError
		result.Reason = "no active session"
		return result, nil
	}

	active, err := e.backend.HasActiveSession(ctx, userID, creds.AccessCredential)
	if err != nil || !active {
		slog.Info("Enrollment rejected, no active backend session", "deviceID", deviceID, "err", err)
		result.Outcome = EnrollBackendError
		result.Reason = "no active session"
		return result, nil
	}

	fingerprint := devicetrust.TokenFingerprint(creds.AccessCredential, deviceID)

	// Snapshot local state so a failed upsert can be compensated
	previousCreds, credsErr := e.store.GetCredentials(ctx)
	previousFlag, flagErr := e.store.GetBiometricEnabled(ctx)

	if err := e.store.SetCredentials(ctx, creds); err != nil {
		result.Outcome = EnrollBackendError
		result.Reason = "failed to persist credentials"
		return result, nil
	}

	record := devicetrust.TrustRecord{
		UserID:           userID,
		DeviceID:         deviceID,
		BiometricEnabled: true,
		Trusted:          true,
		TokenFingerprint: fingerprint,
	}
	if _, err := e.backend.UpsertDeviceRecord(ctx, record); err != nil {
		slog.Warn("Enrollment upsert failed, rolling back local writes", "deviceID", deviceID, "err", err)
		e.rollbackLocal(ctx, previousCreds, credsErr, previousFlag, flagErr)
		e.auditEnroll(ctx, userID, deviceID, "backend_error")
		result.Outcome = EnrollBackendError
		result.Reason = "backend upsert failed"
		return result, nil
	}

	// The local flag is a hint only, written after the record so the
	// trust check never observes it without backend confirmation
	if err := e.store.SetBiometricEnabled(ctx, true); err != nil {
		slog.Error("Failed to set local biometric flag", "err", err)
	}

	slog.Info("Biometric enrollment complete", "userID", userID, "deviceID", deviceID)
	e.auditEnroll(ctx, userID, deviceID, "success")
	result.Outcome = EnrollSuccess
	return result, nil
}

// rollbackLocal restores the pre-enrollment local state captured in the
// snapshot: values that existed are written back, values that did not
// are cleared.
func (e *Engine) rollbackLocal(ctx context.Context, creds securestore.Credentials, credsErr error, flag bool, flagErr error) {
	if credsErr == nil {
		if err := e.store.SetCredentials(ctx, creds); err != nil {
			slog.Error("Rollback failed to restore credentials", "err", err)
		}
	} else {
		if err := e.store.ClearCredentials(ctx); err != nil {
			slog.Error("Rollback failed to clear credentials", "err", err)
		}
	}

	if flagErr == nil {
		if err := e.store.SetBiometricEnabled(ctx, flag); err != nil {
			slog.Error("Rollback failed to restore local biometric flag", "err", err)
		}
	} else {
		if err := e.store.ClearBiometricEnabled(ctx); err != nil {
			slog.Error("Rollback failed to clear local biometric flag", "err", err)
		}
	}
}

func (e *Engine) auditEnroll(ctx context.Context, userID uuid.UUID, deviceID, outcome string) {
	if err := e.sink.Append(ctx, audit.Event{
		UserID:   userID,
		DeviceID: deviceID,
		Action:   audit.ActionBiometricEnroll,
		Outcome:  outcome,
	}); err != nil {
		slog.Error("Failed to append audit event", "err", err)
	}
}
