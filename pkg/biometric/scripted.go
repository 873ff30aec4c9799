package biometric

import (
	"context"
	"sync"
)

// ScriptedPrompt is a Prompt whose outcomes are queued up front.
// It is used by tests and by the demo wiring in cmd, where no real
// biometric hardware exists. It also records every challenge it ran so
// callers can assert on the mode used.
type ScriptedPrompt struct {
	available bool
	outcomes  []ChallengeOutcome
	calls     []ChallengeCall
	mu        sync.Mutex
}

// ChallengeCall records one Challenge invocation
type ChallengeCall struct {
	Mode   Mode
	Reason string
}

// NewScriptedPrompt creates a prompt that reports the given availability
// and replays the queued outcomes in order. When the queue is exhausted,
// further challenges report failure.
func NewScriptedPrompt(available bool, outcomes ...ChallengeOutcome) *ScriptedPrompt {
	return &ScriptedPrompt{
		available: available,
		outcomes:  outcomes,
	}
}

func (p *ScriptedPrompt) IsAvailable(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.available
}

func (p *ScriptedPrompt) Challenge(ctx context.Context, mode Mode, reason string) ChallengeOutcome {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, ChallengeCall{Mode: mode, Reason: reason})

	if !p.available {
		return ChallengeUnavailable
	}
	if len(p.outcomes) == 0 {
		return ChallengeFailed
	}

	outcome := p.outcomes[0]
	p.outcomes = p.outcomes[1:]
	return outcome
}

// Calls returns the challenges run so far
func (p *ScriptedPrompt) Calls() []ChallengeCall {
	p.mu.Lock()
	defer p.mu.Unlock()

	calls := make([]ChallengeCall, len(p.calls))
	copy(calls, p.calls)
	return calls
}

// SetAvailable changes the reported hardware availability
func (p *ScriptedPrompt) SetAvailable(available bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.available = available
}
