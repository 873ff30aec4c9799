package biometric

import (
	"context"
)

// Mode is the intent of a biometric challenge. The two modes are
// mutually exclusive: SETUP is the only mode allowed to write trust
// state, UNLOCK is strictly read-only.
type Mode string

const (
	// ModeSetup is entered only on an explicit user request to enable
	// quick sign-in, and only while the trust check reports disabled.
	ModeSetup Mode = "setup"
	// ModeUnlock is entered during session restoration or before a
	// biometric-gated action. A failed unlock is retried or falls back
	// to password; it never re-triggers setup.
	ModeUnlock Mode = "unlock"
)

// ChallengeOutcome is the result of a single biometric challenge
type ChallengeOutcome string

const (
	ChallengeSuccess     ChallengeOutcome = "success"
	ChallengeFailed      ChallengeOutcome = "failed"
	ChallengeCancelled   ChallengeOutcome = "cancelled"
	ChallengeUnavailable ChallengeOutcome = "unavailable"
)

// Denied reports whether the outcome was an explicit user denial
// (failed or cancelled), as opposed to hardware unavailability.
func (o ChallengeOutcome) Denied() bool {
	return o == ChallengeFailed || o == ChallengeCancelled
}

// Prompt defines the interface to the OS biometric capability.
// Implementations never expose raw biometric data; the only signals
// crossing this boundary are availability and a per-challenge outcome.
type Prompt interface {
	// IsAvailable reports whether biometric hardware can be used right now
	IsAvailable(ctx context.Context) bool

	// Challenge runs a single blocking authentication challenge.
	// The reason is shown to the user by the OS prompt.
	Challenge(ctx context.Context, mode Mode, reason string) ChallengeOutcome
}
