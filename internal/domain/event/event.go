package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/caf-approval/internal/domain/entity"
)

// Event is a completed state transition of a request.
// The set of implementations is closed; switch over the concrete types.
type Event interface {
	ID() string
	Type() Type
	RequestID() int64
	// Request returns the entity as it was when the transition happened
	Request() entity.Request
	OccurredAt() time.Time

	sealed()
}

// base carries the fields every event shares
type base struct {
	id         string
	request    entity.Request
	occurredAt time.Time
}

func newBase(snapshot entity.Request, at time.Time) base {
	if at.IsZero() {
		at = time.Now()
	}
	return base{
		id:         uuid.NewString(),
		request:    snapshot,
		occurredAt: at,
	}
}

func (b base) ID() string              { return b.id }
func (b base) RequestID() int64        { return b.request.ID }
func (b base) Request() entity.Request { return b.request }
func (b base) OccurredAt() time.Time   { return b.occurredAt }
func (b base) sealed()                 {}

// RequestCreated is emitted once a new request has been persisted
type RequestCreated struct {
	base
}

// NewRequestCreated builds the creation event; a zero at means now
func NewRequestCreated(snapshot entity.Request, at time.Time) *RequestCreated {
	return &RequestCreated{base: newBase(snapshot, at)}
}

func (e *RequestCreated) Type() Type { return TypeRequestCreated }

// ContractType returns the contract type the request was filed under
func (e *RequestCreated) ContractType() string { return e.request.Fields.ContractType }

// Responsible returns the reviewer expected to decide on the request
func (e *RequestCreated) Responsible() string { return e.request.Fields.Responsible }

// RequestApproved is emitted when a reviewer approves a request
type RequestApproved struct {
	base
	approvedBy string
}

func NewRequestApproved(snapshot entity.Request, approvedBy string, at time.Time) *RequestApproved {
	return &RequestApproved{base: newBase(snapshot, at), approvedBy: approvedBy}
}

func (e *RequestApproved) Type() Type         { return TypeRequestApproved }
func (e *RequestApproved) ApprovedBy() string { return e.approvedBy }

// RequestRejected covers both a correction request and a definitive rejection
type RequestRejected struct {
	base
	rejectedBy string
	comments   string
	reason     RejectReason
}

func NewRequestRejected(snapshot entity.Request, rejectedBy, comments string, reason RejectReason, at time.Time) *RequestRejected {
	return &RequestRejected{
		base:       newBase(snapshot, at),
		rejectedBy: rejectedBy,
		comments:   comments,
		reason:     reason,
	}
}

func (e *RequestRejected) Type() Type           { return TypeRequestRejected }
func (e *RequestRejected) RejectedBy() string   { return e.rejectedBy }
func (e *RequestRejected) Comments() string     { return e.comments }
func (e *RequestRejected) Reason() RejectReason { return e.reason }

// NeedsCorrection reports whether the submitter may still fix and resubmit
func (e *RequestRejected) NeedsCorrection() bool {
	return e.reason == RejectReasonNeedsCorrection
}

// RequestCorrected is emitted when a request in correction re-enters review
type RequestCorrected struct {
	base
	changedFields []string
}

func NewRequestCorrected(snapshot entity.Request, changedFields []string, at time.Time) *RequestCorrected {
	fields := make([]string, len(changedFields))
	copy(fields, changedFields)
	return &RequestCorrected{base: newBase(snapshot, at), changedFields: fields}
}

func (e *RequestCorrected) Type() Type { return TypeRequestCorrected }

// CorrectedBy returns the submitter who made the corrections
func (e *RequestCorrected) CorrectedBy() string { return e.request.RequestingActor }

// NotifyReviewer returns the reviewer who asked for the corrections
func (e *RequestCorrected) NotifyReviewer() string { return e.request.ReviewingActor }

func (e *RequestCorrected) ChangedFields() []string {
	out := make([]string, len(e.changedFields))
	copy(out, e.changedFields)
	return out
}
