package restoreflow

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/carelock/device-trust/pkg/audit"
	"github.com/carelock/device-trust/pkg/biometric"
	"github.com/carelock/device-trust/pkg/devicetrust"
	"github.com/carelock/device-trust/pkg/identity"
	"github.com/carelock/device-trust/pkg/securestore"
)

// Outcome is the terminal result of one session restoration run
type Outcome string

const (
	// OutcomeSuccess means the session was restored and, when biometric
	// unlock is enabled, the challenge passed.
	OutcomeSuccess Outcome = "success"
	// OutcomeBiometricFailed means the unlock challenge failed or was
	// cancelled. Credentials are retained; the caller may retry or fall
	// back to password.
	OutcomeBiometricFailed Outcome = "biometric_failed"
	// OutcomeLoginRequired means no usable session exists on this
	// device; the caller routes to full re-authentication.
	OutcomeLoginRequired Outcome = "login_required"
)

// Result carries the outcome of a restoration run
type Result struct {
	Outcome          Outcome
	UserID           uuid.UUID
	DeviceID         string
	WipedCredentials bool
	Reason           string

	// AccessCredential is the freshly recovered access credential on a
	// Success outcome, empty otherwise.
	AccessCredential string
}

// RestoreStep represents a single step in the session restoration flow
type RestoreStep interface {
	// Name returns the unique name of this step
	Name() string

	// Order returns the execution order (lower numbers execute first)
	Order() int

	// Execute performs the step's logic
	Execute(ctx context.Context, flowContext *FlowContext) (*StepResult, error)

	// ShouldSkip determines if this step should be skipped based on current context
	ShouldSkip(ctx context.Context, flowContext *FlowContext) bool
}

// FlowContext carries state between restoration steps
type FlowContext struct {
	// Input
	UserID uuid.UUID

	// Current state
	Result      *Result
	DeviceID    string
	Credentials securestore.Credentials
	Record      *devicetrust.TrustRecord

	// RecoveredAccess is the short-lived access credential minted during
	// session recovery. It is handed to the caller but never written to
	// the store: the stored pair stays bound to the enrolled fingerprint.
	RecoveredAccess string

	// Services (injected by the flow executor)
	Services *ServiceDependencies
}

// StepResult represents the result of executing a restoration step
type StepResult struct {
	// Continue indicates whether the flow should continue to the next step
	Continue bool

	// EarlyReturn indicates the flow should return immediately with the current result
	EarlyReturn bool
}

// ServiceDependencies contains all the services needed by restoration steps
type ServiceDependencies struct {
	Store   securestore.SecureStore
	Backend identity.Backend
	Prompt  biometric.Prompt
	Sink    audit.Sink
}

// StepRegistry manages and orders restoration steps
type StepRegistry struct {
	steps []RestoreStep
}

// NewStepRegistry creates a new step registry
func NewStepRegistry() *StepRegistry {
	return &StepRegistry{
		steps: make([]RestoreStep, 0),
	}
}

// AddStep adds a step to the registry
func (r *StepRegistry) AddStep(step RestoreStep) *StepRegistry {
	r.steps = append(r.steps, step)
	return r
}

// GetOrderedSteps returns steps sorted by their order
func (r *StepRegistry) GetOrderedSteps() []RestoreStep {
	orderedSteps := make([]RestoreStep, len(r.steps))
	copy(orderedSteps, r.steps)

	sort.Slice(orderedSteps, func(i, j int) bool {
		return orderedSteps[i].Order() < orderedSteps[j].Order()
	})

	return orderedSteps
}

// FlowExecutor orchestrates the execution of restoration steps
type FlowExecutor struct {
	registry *StepRegistry
	services *ServiceDependencies
}

// NewFlowExecutor creates a new flow executor
func NewFlowExecutor(registry *StepRegistry, services *ServiceDependencies) *FlowExecutor {
	return &FlowExecutor{
		registry: registry,
		services: services,
	}
}

// Execute runs the complete restoration flow for one user
func (e *FlowExecutor) Execute(ctx context.Context, userID uuid.UUID) Result {
	flowContext := &FlowContext{
		UserID:   userID,
		Result:   &Result{UserID: userID, Outcome: OutcomeLoginRequired},
		Services: e.services,
	}

	steps := e.registry.GetOrderedSteps()

	for _, step := range steps {
		if step.ShouldSkip(ctx, flowContext) {
			continue
		}

		stepResult, err := step.Execute(ctx, flowContext)
		if err != nil {
			// A step error means trust cannot be confirmed: fail closed
			// without touching local state beyond what the step already did.
			flowContext.Result.Outcome = OutcomeLoginRequired
			flowContext.Result.Reason = "step '" + step.Name() + "' failed: " + err.Error()
			return *flowContext.Result
		}

		if stepResult.EarlyReturn {
			return *flowContext.Result
		}

		if !stepResult.Continue {
			break
		}
	}

	return *flowContext.Result
}

// FlowBuilder provides a fluent interface for building restoration flows
type FlowBuilder struct {
	registry *StepRegistry
}

// NewFlowBuilder creates a new flow builder
func NewFlowBuilder() *FlowBuilder {
	return &FlowBuilder{
		registry: NewStepRegistry(),
	}
}

// AddStep adds a step to the flow
func (b *FlowBuilder) AddStep(step RestoreStep) *FlowBuilder {
	b.registry.AddStep(step)
	return b
}

// Build creates a flow executor with the configured steps
func (b *FlowBuilder) Build(services *ServiceDependencies) *FlowExecutor {
	return NewFlowExecutor(b.registry, services)
}

// Predefined step orders
const (
	OrderCredentialPresence      = 100
	OrderSessionRecovery         = 200
	OrderTrustRecordFetch        = 300
	OrderFingerprintVerification = 400
	OrderBiometricChallenge      = 500
	OrderSuccessRecording        = 600
)
