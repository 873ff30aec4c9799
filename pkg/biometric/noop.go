package biometric

import (
	"context"
)

// NoOpPrompt is a no-op implementation of Prompt.
// This allows the trust engine to run on hosts without biometric
// hardware; every challenge reports unavailable.
type NoOpPrompt struct{}

// NewNoOpPrompt creates a new no-op biometric prompt.
// Use this when biometric hardware is not present or not needed.
func NewNoOpPrompt() Prompt {
	return &NoOpPrompt{}
}

func (p *NoOpPrompt) IsAvailable(ctx context.Context) bool {
	return false
}

func (p *NoOpPrompt) Challenge(ctx context.Context, mode Mode, reason string) ChallengeOutcome {
	return ChallengeUnavailable
}
