package workflow

import "context"

// StateMachine tracks the approval state of one request and validates transitions
type StateMachine interface {
	// State returns the current state
	State() State

	// Fire executes the trigger and returns the state it moved to
	Fire(ctx context.Context, trigger Trigger) (State, error)
}
