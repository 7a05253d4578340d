package workflow

// State represents an approval state in the request lifecycle
type State string

const (
	StatePending              State = "PENDING"
	StateNeedsCorrection      State = "NEEDS_CORRECTION"
	StateApproved             State = "APPROVED"
	StateDefinitivelyRejected State = "DEFINITIVELY_REJECTED"
)

// States lists every approval state in lifecycle order
var States = []State{
	StatePending,
	StateNeedsCorrection,
	StateApproved,
	StateDefinitivelyRejected,
}

// IsTerminal returns true if a review decision has closed the request
func (s State) IsTerminal() bool {
	switch s {
	case StateApproved, StateDefinitivelyRejected:
		return true
	default:
		return false
	}
}

// IsDecision returns true if the state can be the target of a review decision
func (s State) IsDecision() bool {
	switch s {
	case StateNeedsCorrection, StateApproved, StateDefinitivelyRejected:
		return true
	default:
		return false
	}
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid approval state
func (s State) IsValid() bool {
	switch s {
	case StatePending, StateNeedsCorrection, StateApproved, StateDefinitivelyRejected:
		return true
	default:
		return false
	}
}

// Mode is the editability hint derived from the approval state
type Mode string

const (
	ModeNormal Mode = "Normal"
	ModeEdit   Mode = "Edit"
	ModeView   Mode = "View"
)

// String returns the string representation of the mode
func (m Mode) String() string {
	return string(m)
}

// ModeFor returns the mode fixed for a state.
// Unknown states map to Normal.
func ModeFor(s State) Mode {
	switch s {
	case StateNeedsCorrection:
		return ModeEdit
	case StateApproved, StateDefinitivelyRejected:
		return ModeView
	case StatePending:
		return ModeNormal
	default:
		return ModeNormal
	}
}
