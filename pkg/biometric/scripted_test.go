package biometric

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScriptedPrompt_ReplaysOutcomes(t *testing.T) {
	ctx := context.Background()
	prompt := NewScriptedPrompt(true, ChallengeSuccess, ChallengeCancelled)

	assert.True(t, prompt.IsAvailable(ctx))
	assert.Equal(t, ChallengeSuccess, prompt.Challenge(ctx, ModeUnlock, "unlock"))
	assert.Equal(t, ChallengeCancelled, prompt.Challenge(ctx, ModeUnlock, "unlock"))

	// Exhausted queue fails
	assert.Equal(t, ChallengeFailed, prompt.Challenge(ctx, ModeUnlock, "unlock"))
}

func TestScriptedPrompt_Unavailable(t *testing.T) {
	ctx := context.Background()
	prompt := NewScriptedPrompt(false, ChallengeSuccess)

	assert.False(t, prompt.IsAvailable(ctx))
	assert.Equal(t, ChallengeUnavailable, prompt.Challenge(ctx, ModeSetup, "enroll"))
}

func TestScriptedPrompt_RecordsCalls(t *testing.T) {
	ctx := context.Background()
	prompt := NewScriptedPrompt(true, ChallengeSuccess)

	prompt.Challenge(ctx, ModeSetup, "enable quick sign-in")

	calls := prompt.Calls()
	assert.Len(t, calls, 1)
	assert.Equal(t, ModeSetup, calls[0].Mode)
	assert.Equal(t, "enable quick sign-in", calls[0].Reason)
}

func TestChallengeOutcome_Denied(t *testing.T) {
	assert.True(t, ChallengeFailed.Denied())
	assert.True(t, ChallengeCancelled.Denied())
	assert.False(t, ChallengeSuccess.Denied())
	assert.False(t, ChallengeUnavailable.Denied())
}
