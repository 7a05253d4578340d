package workflow

import "fmt"

// Trigger represents an action that can cause a state transition
type Trigger string

const (
	TriggerRequestCorrection  Trigger = "REQUEST_CORRECTION"
	TriggerApprove            Trigger = "APPROVE"
	TriggerRejectDefinitively Trigger = "REJECT_DEFINITIVELY"
	TriggerResubmit           Trigger = "RESUBMIT"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

// DecisionTrigger maps a review decision target to the trigger that reaches it
func DecisionTrigger(target State) (Trigger, error) {
	switch target {
	case StateNeedsCorrection:
		return TriggerRequestCorrection, nil
	case StateApproved:
		return TriggerApprove, nil
	case StateDefinitivelyRejected:
		return TriggerRejectDefinitively, nil
	default:
		return "", fmt.Errorf("%w: %q is not a decision target", ErrInvalidState, target)
	}
}
