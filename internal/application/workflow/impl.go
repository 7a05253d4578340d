package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/caf-approval/internal/application/dispatcher"
	"github.com/garyjia/caf-approval/internal/application/port"
	"github.com/garyjia/caf-approval/internal/domain/entity"
	"github.com/garyjia/caf-approval/internal/domain/event"
	domainwf "github.com/garyjia/caf-approval/internal/domain/workflow"
)

// EventDispatcher is the part of the dispatcher the engine needs
type EventDispatcher interface {
	Dispatch(ctx context.Context, evt event.Event) dispatcher.DispatchReport
}

// engineImpl is the concrete implementation of Engine
type engineImpl struct {
	store      port.RequestStore
	validator  port.PayloadValidator
	dispatcher EventDispatcher
	logger     dispatcher.Logger

	allowRedecide bool
	now           func() time.Time
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithDispatcher sets the event dispatcher for emitting events
func WithDispatcher(d EventDispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// WithValidator sets the schema validator run on created and corrected requests
func WithValidator(v port.PayloadValidator) EngineOption {
	return func(e *engineImpl) {
		e.validator = v
	}
}

// WithLogger sets a logger for the engine
func WithLogger(l dispatcher.Logger) EngineOption {
	return func(e *engineImpl) {
		e.logger = l
	}
}

// WithTerminalDecisionsLocked rejects decisions on Approved and
// DefinitivelyRejected requests
func WithTerminalDecisionsLocked() EngineOption {
	return func(e *engineImpl) {
		e.allowRedecide = false
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) EngineOption {
	return func(e *engineImpl) {
		e.now = now
	}
}

// NewEngine creates a new workflow engine
func NewEngine(store port.RequestStore, opts ...EngineOption) Engine {
	e := &engineImpl{
		store:         store,
		allowRedecide: true,
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Create stores a new Pending request built from payload
func (e *engineImpl) Create(ctx context.Context, payload entity.Payload) (entity.Request, error) {
	req, err := entity.NewRequest(payload)
	if err != nil {
		return entity.Request{}, err
	}

	if err := e.validate(req); err != nil {
		return entity.Request{}, err
	}

	now := e.now()
	req.CreatedAt = now
	req.UpdatedAt = now

	stored, err := e.store.CreateRequest(ctx, *req)
	if err != nil {
		return entity.Request{}, err
	}

	e.info("Request created",
		"request_id", stored.ID,
		"contract_type", stored.Fields.ContractType,
		"requesting_actor", stored.RequestingActor,
	)

	e.emit(ctx, event.NewRequestCreated(stored.Snapshot(), now))
	return stored, nil
}

// Decide records a reviewer decision
func (e *engineImpl) Decide(ctx context.Context, id int64, target domainwf.State, comments, reviewingActor string) (entity.Request, error) {
	req, err := e.load(ctx, id)
	if err != nil {
		return entity.Request{}, err
	}

	if !target.IsDecision() {
		return entity.Request{}, &domainwf.ValidationError{
			Field:  "target_state",
			Reason: fmt.Sprintf("%q is not a decision", target),
			Err:    domainwf.ErrInvalidState,
		}
	}
	trigger, err := domainwf.DecisionTrigger(target)
	if err != nil {
		return entity.Request{}, err
	}

	if target == domainwf.StateNeedsCorrection && strings.TrimSpace(comments) == "" {
		return entity.Request{}, domainwf.NewValidationError("comments", "comments are required when requesting corrections")
	}

	previous := req.State
	machine := BuildApprovalStateMachine(previous, e.allowRedecide)
	next, err := machine.Fire(ctx, trigger)
	if err != nil {
		reason := fmt.Sprintf("cannot move a %s request to %s", previous, target)
		if previous.IsTerminal() {
			reason = fmt.Sprintf("request is closed as %s; decisions are locked", previous)
		}
		return entity.Request{}, &domainwf.ValidationError{
			Field:  "target_state",
			Reason: reason,
			Err:    err,
		}
	}
	if previous.IsTerminal() && e.logger != nil {
		e.logger.Warn("Closed request re-decided",
			"request_id", req.ID,
			"previous_state", previous,
			"new_state", next,
			"reviewing_actor", reviewingActor,
		)
	}

	req.SetState(next)
	switch next {
	case domainwf.StateApproved:
		req.Comments = ""
	case domainwf.StateNeedsCorrection, domainwf.StateDefinitivelyRejected:
		req.Comments = comments
	}
	req.ReviewingActor = reviewingActor

	now := e.now()
	req.UpdatedAt = now

	if err := e.store.SaveRequest(ctx, req); err != nil {
		return entity.Request{}, err
	}

	e.info("Request decided",
		"request_id", req.ID,
		"previous_state", previous,
		"new_state", next,
		"reviewing_actor", reviewingActor,
	)

	snapshot := req.Snapshot()
	switch next {
	case domainwf.StateApproved:
		e.emit(ctx, event.NewRequestApproved(snapshot, reviewingActor, now))
	case domainwf.StateNeedsCorrection:
		e.emit(ctx, event.NewRequestRejected(snapshot, reviewingActor, comments, event.RejectReasonNeedsCorrection, now))
	default:
		e.emit(ctx, event.NewRequestRejected(snapshot, reviewingActor, comments, event.RejectReasonDefinitive, now))
	}

	return req, nil
}

// ApplyCorrection applies the submitter's edits
func (e *engineImpl) ApplyCorrection(ctx context.Context, id int64, payload entity.Payload) (entity.Request, error) {
	req, err := e.load(ctx, id)
	if err != nil {
		return entity.Request{}, err
	}

	// state is read before the payload touches the entity
	wasCorrection := req.State == domainwf.StateNeedsCorrection

	changed, err := req.ApplyPayload(payload)
	if err != nil {
		return entity.Request{}, err
	}

	if err := e.validate(&req); err != nil {
		return entity.Request{}, err
	}

	if wasCorrection {
		machine := BuildApprovalStateMachine(req.State, e.allowRedecide)
		next, err := machine.Fire(ctx, domainwf.TriggerResubmit)
		if err != nil {
			return entity.Request{}, fmt.Errorf("resubmit request %d: %w", id, err)
		}
		req.SetState(next)
	}

	now := e.now()
	req.UpdatedAt = now

	if err := e.store.SaveRequest(ctx, req); err != nil {
		return entity.Request{}, err
	}

	e.info("Request updated",
		"request_id", req.ID,
		"changed_fields", changed,
		"resubmitted", wasCorrection,
	)

	if wasCorrection {
		e.emit(ctx, event.NewRequestCorrected(req.Snapshot(), changed, now))
	}

	return req, nil
}

// Get returns the stored request
func (e *engineImpl) Get(ctx context.Context, id int64) (entity.Request, error) {
	return e.load(ctx, id)
}

func (e *engineImpl) load(ctx context.Context, id int64) (entity.Request, error) {
	req, err := e.store.GetRequest(ctx, id)
	if err != nil {
		if errors.Is(err, domainwf.ErrNotFound) {
			return entity.Request{}, &domainwf.NotFoundError{ID: id}
		}
		return entity.Request{}, err
	}

	if !req.State.IsValid() {
		return entity.Request{}, fmt.Errorf("request %d has unknown approval state %q", id, req.State)
	}
	return req, nil
}

func (e *engineImpl) validate(req *entity.Request) error {
	if e.validator == nil {
		return nil
	}
	return e.validator.ValidateRequest(req)
}

// emit dispatches synchronously; observer failures never fail the operation
func (e *engineImpl) emit(ctx context.Context, evt event.Event) {
	if e.dispatcher == nil {
		return
	}

	report := e.dispatcher.Dispatch(ctx, evt)
	if len(report.Failures) > 0 && e.logger != nil {
		e.logger.Warn("Event delivered with observer failures",
			"event_type", evt.Type(),
			"request_id", evt.RequestID(),
			"failed", len(report.Failures),
		)
	}
}

func (e *engineImpl) info(msg string, keysAndValues ...interface{}) {
	if e.logger != nil {
		e.logger.Info(msg, keysAndValues...)
	}
}
