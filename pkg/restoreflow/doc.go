// Package restoreflow implements session restoration as an ordered
// sequence of steps. Each step can be skipped, can stop the flow early
// with a final outcome, or lets the flow continue.
//
// The default flow runs:
//
//  1. credential_presence       - load device ID and stored credentials
//  2. session_recovery          - refresh the backend session
//  3. trust_record_fetch        - fetch the record, enforce revocation
//  4. fingerprint_verification  - detect credential/device mismatch
//  5. biometric_challenge       - unlock challenge, read-only
//  6. success_recording         - last-used bookkeeping and audit
//
// Every failure path resolves to one of three outcomes: Success,
// BiometricFailed (credentials retained, caller may retry or fall back
// to password), or LoginRequired (full authentication needed). When a
// step cannot determine a safe answer the flow fails closed to
// LoginRequired.
//
// Usage:
//
//	flow := restoreflow.NewDefaultRestoreFlow(&restoreflow.ServiceDependencies{
//		Store:   store,
//		Backend: backend,
//		Prompt:  prompt,
//		Sink:    sink,
//	})
//	result := flow.Execute(ctx, userID)
//	switch result.Outcome {
//	case restoreflow.OutcomeSuccess:
//		// proceed into the app
//	case restoreflow.OutcomeBiometricFailed:
//		// offer retry or password fallback, credentials intact
//	case restoreflow.OutcomeLoginRequired:
//		// route to full login
//	}
//
// Custom flows are assembled with FlowBuilder; steps are executed in
// ascending Order() regardless of registration order.
package restoreflow
