package event

// Type identifies the type of domain event
type Type string

const (
	TypeRequestCreated   Type = "request.created"
	TypeRequestApproved  Type = "request.approved"
	TypeRequestRejected  Type = "request.rejected"
	TypeRequestCorrected Type = "request.corrected"
)

// Types lists every event type in emission order of a typical lifecycle
var Types = []Type{
	TypeRequestCreated,
	TypeRequestRejected,
	TypeRequestCorrected,
	TypeRequestApproved,
}

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeRequestCreated,
		TypeRequestApproved,
		TypeRequestRejected,
		TypeRequestCorrected:
		return true
	default:
		return false
	}
}

// RejectReason tells the two rejection outcomes apart
type RejectReason string

const (
	RejectReasonNeedsCorrection RejectReason = "needs_correction"
	RejectReasonDefinitive      RejectReason = "definitive"
)

func (r RejectReason) String() string {
	return string(r)
}
