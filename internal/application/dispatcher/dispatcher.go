package dispatcher

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/garyjia/caf-approval/internal/domain/event"
)

// DefaultHistoryCapacity is the number of events kept when no capacity is configured
const DefaultHistoryCapacity = 1000

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Recorder receives dispatch telemetry
type Recorder interface {
	EventDispatched(eventType event.Type)
	ObserverHandled(observer string, eventType event.Type, elapsed time.Duration, err error)
	HistorySize(n int)
}

// Dispatcher fans domain events out to subscribed observers and keeps a
// bounded history of what it dispatched. Safe for concurrent use.
type Dispatcher struct {
	mu        sync.RWMutex
	observers []Observer

	// ring buffer; start is the oldest entry
	history  []event.Event
	start    int
	size     int
	capacity int

	logger  Logger
	metrics Recorder
}

// Option configures the dispatcher
type Option func(*Dispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithHistoryCapacity bounds the event history; values below 1 keep the default
func WithHistoryCapacity(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.capacity = n
		}
	}
}

// WithMetrics sets a telemetry recorder
func WithMetrics(r Recorder) Option {
	return func(d *Dispatcher) {
		d.metrics = r
	}
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		capacity: DefaultHistoryCapacity,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.history = make([]event.Event, d.capacity)
	return d
}

// Subscribe registers an observer. Subscribing the same observer twice is a no-op.
func (d *Dispatcher) Subscribe(o Observer) {
	if o == nil {
		return
	}
	if !identifiable(o) {
		if d.logger != nil {
			d.logger.Error("Observer rejected: value has no identity",
				"observer", observerName(o),
				"type", fmt.Sprintf("%T", o),
			)
		}
		return
	}

	d.mu.Lock()
	if d.indexOf(o) >= 0 {
		d.mu.Unlock()
		if d.logger != nil {
			d.logger.Warn("Observer already subscribed", "observer", observerName(o))
		}
		return
	}
	d.observers = append(d.observers, o)
	count := len(d.observers)
	d.mu.Unlock()

	if d.logger != nil {
		d.logger.Info("Observer subscribed",
			"observer", observerName(o),
			"observers_count", count,
		)
	}
}

// Unsubscribe removes an observer if present
func (d *Dispatcher) Unsubscribe(o Observer) {
	d.mu.Lock()
	idx := d.indexOf(o)
	if idx < 0 {
		d.mu.Unlock()
		if d.logger != nil {
			d.logger.Warn("Observer not subscribed", "observer", observerName(o))
		}
		return
	}
	observers := make([]Observer, 0, len(d.observers)-1)
	observers = append(observers, d.observers[:idx]...)
	d.observers = append(observers, d.observers[idx+1:]...)
	d.mu.Unlock()

	if d.logger != nil {
		d.logger.Info("Observer unsubscribed", "observer", observerName(o))
	}
}

// Dispatch records evt in the history, then runs every capable observer in
// subscription order. Observer errors and panics are logged and reported;
// Dispatch itself never fails.
func (d *Dispatcher) Dispatch(ctx context.Context, evt event.Event) DispatchReport {
	report := DispatchReport{}
	if evt == nil {
		return report
	}
	report.EventID = evt.ID()
	report.EventType = evt.Type()

	d.mu.Lock()
	d.record(evt)
	historySize := d.size
	observers := make([]Observer, len(d.observers))
	copy(observers, d.observers)
	d.mu.Unlock()

	if d.metrics != nil {
		d.metrics.EventDispatched(evt.Type())
		d.metrics.HistorySize(historySize)
	}

	if d.logger != nil {
		d.logger.Info("Dispatching event",
			"event_type", evt.Type(),
			"event_id", evt.ID(),
			"request_id", evt.RequestID(),
			"observers_count", len(observers),
		)
	}

	for _, o := range observers {
		if !d.safeCanHandle(o, evt.Type()) {
			continue
		}

		name := observerName(o)
		started := time.Now()
		err := d.safeExecute(ctx, o, evt)
		if d.metrics != nil {
			d.metrics.ObserverHandled(name, evt.Type(), time.Since(started), err)
		}

		if err != nil {
			report.Failures = append(report.Failures, &ObserverError{
				Observer:  name,
				EventType: evt.Type(),
				EventID:   evt.ID(),
				Err:       err,
			})
			if d.logger != nil {
				d.logger.Error("Observer error",
					"observer", name,
					"event_type", evt.Type(),
					"event_id", evt.ID(),
					"error", err,
				)
			}
			continue
		}
		report.Handled++
	}

	if d.logger != nil {
		d.logger.Info("Event dispatched",
			"event_type", evt.Type(),
			"event_id", evt.ID(),
			"handled", report.Handled,
			"failed", len(report.Failures),
		)
	}

	return report
}

// History returns the retained events, oldest first
func (d *Dispatcher) History() []event.Event {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]event.Event, d.size)
	for i := 0; i < d.size; i++ {
		out[i] = d.history[(d.start+i)%d.capacity]
	}
	return out
}

// ClearHistory drops every retained event; subscriptions are untouched
func (d *Dispatcher) ClearHistory() {
	d.mu.Lock()
	for i := range d.history {
		d.history[i] = nil
	}
	d.start = 0
	d.size = 0
	d.mu.Unlock()

	if d.metrics != nil {
		d.metrics.HistorySize(0)
	}
	if d.logger != nil {
		d.logger.Info("Event history cleared")
	}
}

// HistoryCapacity returns the maximum number of retained events
func (d *Dispatcher) HistoryCapacity() int {
	return d.capacity
}

// ObserversCount returns the number of subscribed observers
func (d *Dispatcher) ObserversCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.observers)
}

// Observers describes the subscribed observers in subscription order
func (d *Dispatcher) Observers() []ObserverInfo {
	d.mu.RLock()
	observers := make([]Observer, len(d.observers))
	copy(observers, d.observers)
	d.mu.RUnlock()

	infos := make([]ObserverInfo, 0, len(observers))
	for _, o := range observers {
		info := ObserverInfo{Name: observerName(o), Types: []event.Type{}}
		for _, t := range event.Types {
			if d.safeCanHandle(o, t) {
				info.Types = append(info.Types, t)
			}
		}
		infos = append(infos, info)
	}
	return infos
}

// record must be called with mu held
func (d *Dispatcher) record(evt event.Event) {
	if d.size < d.capacity {
		d.history[(d.start+d.size)%d.capacity] = evt
		d.size++
		return
	}
	d.history[d.start] = evt
	d.start = (d.start + 1) % d.capacity
}

// indexOf must be called with mu held
func (d *Dispatcher) indexOf(o Observer) int {
	for i, existing := range d.observers {
		if sameObserver(existing, o) {
			return i
		}
	}
	return -1
}

// sameObserver compares by identity. Func, map and slice observers compare by
// pointer, so closures built from one literal count as the same observer;
// wrap those with NewFuncObserver to subscribe them separately.
func sameObserver(a, b Observer) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || ta == nil {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	switch ta.Kind() {
	case reflect.Func, reflect.Map, reflect.Slice:
		return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
	default:
		return false
	}
}

// identifiable reports whether sameObserver can find o again
func identifiable(o Observer) bool {
	t := reflect.TypeOf(o)
	if t.Comparable() {
		return true
	}
	switch t.Kind() {
	case reflect.Func, reflect.Map, reflect.Slice:
		return true
	default:
		return false
	}
}

func (d *Dispatcher) safeCanHandle(o Observer, t event.Type) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			if d.logger != nil {
				d.logger.Error("Observer panic recovered in CanHandle",
					"observer", observerName(o),
					"event_type", t,
					"panic", r,
				)
			}
		}
	}()

	return o.CanHandle(t)
}

// safeExecute runs an observer with panic recovery
func (d *Dispatcher) safeExecute(ctx context.Context, o Observer, evt event.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("observer panic: %v", r)
			if d.logger != nil {
				d.logger.Error("Observer panic recovered",
					"observer", observerName(o),
					"event_type", evt.Type(),
					"event_id", evt.ID(),
					"panic", r,
				)
			}
		}
	}()

	return o.Handle(ctx, evt)
}
