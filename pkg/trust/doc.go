// Package trust implements the trust engine: the single authority for
// whether a device is currently trusted to act on behalf of a user
// without re-entering credentials.
//
// The engine exposes three operations to callers:
//
//   - IsBiometricEnabled: a side-effect-free check re-derived from the
//     backend record on every call. Local state never overrides it, and
//     any failure, including an unreachable backend, yields false.
//   - RestoreSession: the app-start flow, producing Success,
//     BiometricFailed, or LoginRequired. See package restoreflow.
//   - Enroll: enables biometric unlock as an all-or-nothing
//     transaction with compensating rollback.
//
// The biometric challenge runs in one of two modes with different
// write intent. Setup runs only inside Enroll and is the only path
// allowed to write the trust record. Unlock runs during restoration
// and before sensitive actions, and never writes; a failed unlock
// offers retry or password fallback, never an implicit re-enrollment.
//
// Restoration and enrollment are not re-entrant: a second call for the
// same user/device while one is in flight fails with an
// OPERATION_IN_FLIGHT error.
//
// Example:
//
//	engine := trust.NewEngine(store, backend, prompt,
//		trust.WithSink(sink),
//		trust.WithSetupReason("Enable quick sign-in"),
//	)
//
//	result, err := engine.RestoreSession(ctx, userID)
//	if err != nil {
//		// concurrent attempt for the same device
//	}
//	switch result.Outcome {
//	case restoreflow.OutcomeSuccess:
//	case restoreflow.OutcomeBiometricFailed:
//	case restoreflow.OutcomeLoginRequired:
//	}
package trust
