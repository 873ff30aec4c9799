package restoreflow

// DefaultUnlockReason is shown by the OS prompt during the unlock
// challenge when the caller does not provide its own copy.
const DefaultUnlockReason = "Unlock your account"

// NewDefaultRestoreFlow builds the standard session restoration flow:
// credential presence, session recovery, trust record enforcement,
// fingerprint verification, biometric unlock, success recording.
func NewDefaultRestoreFlow(services *ServiceDependencies) *FlowExecutor {
	return NewFlowBuilder().
		AddStep(NewCredentialPresenceStep()).
		AddStep(NewSessionRecoveryStep()).
		AddStep(NewTrustRecordFetchStep()).
		AddStep(NewFingerprintVerificationStep()).
		AddStep(NewBiometricChallengeStep(DefaultUnlockReason)).
		AddStep(NewSuccessRecordingStep()).
		Build(services)
}

// NewRestoreFlowWithoutBiometric builds a flow that skips the unlock
// challenge entirely. Useful for headless callers that only need the
// credential and trust checks.
func NewRestoreFlowWithoutBiometric(services *ServiceDependencies) *FlowExecutor {
	return NewFlowBuilder().
		AddStep(NewCredentialPresenceStep()).
		AddStep(NewSessionRecoveryStep()).
		AddStep(NewTrustRecordFetchStep()).
		AddStep(NewFingerprintVerificationStep()).
		AddStep(NewSuccessRecordingStep()).
		Build(services)
}
