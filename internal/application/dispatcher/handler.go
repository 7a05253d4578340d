package dispatcher

import (
	"context"
	"fmt"

	"github.com/garyjia/caf-approval/internal/domain/event"
)

// Observer reacts to the domain events it declares it can handle
type Observer interface {
	CanHandle(eventType event.Type) bool
	Handle(ctx context.Context, evt event.Event) error
}

// Named is implemented by observers that want a stable name in logs and
// in the status surface. Others are named after their dynamic type.
type Named interface {
	Name() string
}

// HandlerFunc processes a single domain event
type HandlerFunc func(ctx context.Context, evt event.Event) error

// FuncObserver adapts a HandlerFunc to the Observer contract
type FuncObserver struct {
	name  string
	types map[event.Type]struct{}
	fn    HandlerFunc
}

// NewFuncObserver builds an observer that runs fn for the given types.
// With no types it handles every event.
func NewFuncObserver(name string, fn HandlerFunc, types ...event.Type) *FuncObserver {
	set := make(map[event.Type]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return &FuncObserver{name: name, types: set, fn: fn}
}

func (o *FuncObserver) Name() string { return o.name }

func (o *FuncObserver) CanHandle(eventType event.Type) bool {
	if len(o.types) == 0 {
		return true
	}
	_, ok := o.types[eventType]
	return ok
}

func (o *FuncObserver) Handle(ctx context.Context, evt event.Event) error {
	return o.fn(ctx, evt)
}

// ObserverInfo describes a subscribed observer for introspection
type ObserverInfo struct {
	Name  string       `json:"name"`
	Types []event.Type `json:"types"`
}

// ObserverError records a failed or panicking observer. It is reported,
// never returned by Dispatch.
type ObserverError struct {
	Observer  string
	EventType event.Type
	EventID   string
	Err       error
}

func (e *ObserverError) Error() string {
	return fmt.Sprintf("observer %s failed on %s: %v", e.Observer, e.EventType, e.Err)
}

func (e *ObserverError) Unwrap() error {
	return e.Err
}

// DispatchReport summarizes one fan-out
type DispatchReport struct {
	EventID   string
	EventType event.Type
	Handled   int
	Failures  []*ObserverError
}

func observerName(o Observer) string {
	if n, ok := o.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", o)
}
