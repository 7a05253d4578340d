package workflow

import (
	"context"

	domainwf "github.com/garyjia/caf-approval/internal/domain/workflow"
)

// BuildApprovalStateMachine creates a state machine configured for the CAF
// approval workflow. Decisions on Approved or DefinitivelyRejected requests
// are guarded by allowRedecide.
func BuildApprovalStateMachine(initialState domainwf.State, allowRedecide bool) domainwf.StateMachine {
	builder := domainwf.NewBuilder()
	redecide := func(context.Context) bool { return allowRedecide }

	// PENDING state transitions
	builder.Configure(domainwf.StatePending).
		Permit(domainwf.TriggerRequestCorrection, domainwf.StateNeedsCorrection).
		Permit(domainwf.TriggerApprove, domainwf.StateApproved).
		Permit(domainwf.TriggerRejectDefinitively, domainwf.StateDefinitivelyRejected)

	// NEEDS_CORRECTION state transitions
	builder.Configure(domainwf.StateNeedsCorrection).
		Permit(domainwf.TriggerResubmit, domainwf.StatePending).
		Permit(domainwf.TriggerRequestCorrection, domainwf.StateNeedsCorrection).
		Permit(domainwf.TriggerApprove, domainwf.StateApproved).
		Permit(domainwf.TriggerRejectDefinitively, domainwf.StateDefinitivelyRejected)

	// APPROVED and DEFINITIVELY_REJECTED only move on an administrative re-decision
	for _, terminal := range []domainwf.State{domainwf.StateApproved, domainwf.StateDefinitivelyRejected} {
		builder.Configure(terminal).
			PermitIf(domainwf.TriggerRequestCorrection, domainwf.StateNeedsCorrection, redecide).
			PermitIf(domainwf.TriggerApprove, domainwf.StateApproved, redecide).
			PermitIf(domainwf.TriggerRejectDefinitively, domainwf.StateDefinitivelyRejected, redecide)
	}

	return builder.Build(initialState)
}
