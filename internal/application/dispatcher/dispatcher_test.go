package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/caf-approval/internal/domain/entity"
	"github.com/garyjia/caf-approval/internal/domain/event"
)

// mockLogger implements Logger for testing
type mockLogger struct {
	mu      sync.Mutex
	infos   []string
	warns   []string
	errors  []string
	entries []map[string]interface{}
}

func (m *mockLogger) log(level, msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := map[string]interface{}{"msg": msg, "level": level}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		entry[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	m.entries = append(m.entries, entry)
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.log("info", msg, keysAndValues...)
	m.mu.Lock()
	m.infos = append(m.infos, msg)
	m.mu.Unlock()
}

func (m *mockLogger) Warn(msg string, keysAndValues ...interface{}) {
	m.log("warn", msg, keysAndValues...)
	m.mu.Lock()
	m.warns = append(m.warns, msg)
	m.mu.Unlock()
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.log("error", msg, keysAndValues...)
	m.mu.Lock()
	m.errors = append(m.errors, msg)
	m.mu.Unlock()
}

func (m *mockLogger) WarnCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.warns)
}

func (m *mockLogger) findEntry(msg string) map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e["msg"] == msg {
			return e
		}
	}
	return nil
}

// countingObserver records the events it handled
type countingObserver struct {
	name  string
	types []event.Type
	err   error
	panic bool

	mu     sync.Mutex
	events []event.Event
}

func (o *countingObserver) Name() string { return o.name }

func (o *countingObserver) CanHandle(t event.Type) bool {
	if len(o.types) == 0 {
		return true
	}
	for _, typ := range o.types {
		if typ == t {
			return true
		}
	}
	return false
}

func (o *countingObserver) Handle(_ context.Context, evt event.Event) error {
	o.mu.Lock()
	o.events = append(o.events, evt)
	o.mu.Unlock()
	if o.panic {
		panic("observer exploded")
	}
	return o.err
}

func (o *countingObserver) Count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.events)
}

func newEvent(id int64) event.Event {
	return event.NewRequestCreated(entity.Request{ID: id}, time.Time{})
}

func TestNewDispatcher(t *testing.T) {
	t.Run("uses default capacity", func(t *testing.T) {
		d := NewDispatcher()
		assert.Equal(t, DefaultHistoryCapacity, d.HistoryCapacity())
		assert.Equal(t, 0, d.ObserversCount())
		assert.Empty(t, d.History())
	})

	t.Run("applies options", func(t *testing.T) {
		d := NewDispatcher(WithLogger(&mockLogger{}), WithHistoryCapacity(5))
		assert.Equal(t, 5, d.HistoryCapacity())
	})

	t.Run("ignores non-positive capacity", func(t *testing.T) {
		d := NewDispatcher(WithHistoryCapacity(0))
		assert.Equal(t, DefaultHistoryCapacity, d.HistoryCapacity())
	})
}

func TestSubscribe(t *testing.T) {
	t.Run("is idempotent by identity", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		obs := &countingObserver{name: "email"}

		d.Subscribe(obs)
		d.Subscribe(obs)

		assert.Equal(t, 1, d.ObserversCount())
		assert.Equal(t, 1, logger.WarnCount())

		d.Dispatch(context.Background(), newEvent(1))
		assert.Equal(t, 1, obs.Count(), "duplicate subscription must not double-deliver")
	})

	t.Run("distinct instances of the same type both subscribe", func(t *testing.T) {
		d := NewDispatcher()
		d.Subscribe(&countingObserver{name: "a"})
		d.Subscribe(&countingObserver{name: "a"})

		assert.Equal(t, 2, d.ObserversCount())
	})

	t.Run("ignores nil", func(t *testing.T) {
		d := NewDispatcher()
		d.Subscribe(nil)
		assert.Equal(t, 0, d.ObserversCount())
	})
}

func TestUnsubscribe(t *testing.T) {
	t.Run("removes only the given observer", func(t *testing.T) {
		d := NewDispatcher()
		first := &countingObserver{name: "first"}
		second := &countingObserver{name: "second"}
		d.Subscribe(first)
		d.Subscribe(second)

		d.Unsubscribe(first)
		d.Dispatch(context.Background(), newEvent(1))

		assert.Equal(t, 1, d.ObserversCount())
		assert.Equal(t, 0, first.Count())
		assert.Equal(t, 1, second.Count())
	})

	t.Run("non-member is a logged no-op", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		d.Subscribe(&countingObserver{name: "kept"})

		d.Unsubscribe(&countingObserver{name: "stranger"})

		assert.Equal(t, 1, d.ObserversCount())
		assert.Equal(t, 1, logger.WarnCount())
	})
}

// handlerFunc is an observer whose dynamic type is a func
type handlerFunc func(ctx context.Context, evt event.Event) error

func (f handlerFunc) CanHandle(event.Type) bool { return true }

func (f handlerFunc) Handle(ctx context.Context, evt event.Event) error { return f(ctx, evt) }

// tallyObserver is an observer whose dynamic type is a map
type tallyObserver map[event.Type]int

func (o tallyObserver) CanHandle(event.Type) bool { return true }

func (o tallyObserver) Handle(_ context.Context, evt event.Event) error {
	o[evt.Type()]++
	return nil
}

// taggedObserver is a struct value with no usable identity
type taggedObserver struct {
	tags []string
}

func (taggedObserver) CanHandle(event.Type) bool                 { return true }
func (taggedObserver) Handle(context.Context, event.Event) error { return nil }

var calls atomic.Int32

func countCall(context.Context, event.Event) error {
	calls.Add(1)
	return nil
}

func TestSubscribe_UncomparableObservers(t *testing.T) {
	t.Run("func observer subscribes once and unsubscribes", func(t *testing.T) {
		calls.Store(0)
		d := NewDispatcher()
		obs := handlerFunc(countCall)

		d.Subscribe(obs)
		d.Subscribe(obs)
		require.Equal(t, 1, d.ObserversCount())

		d.Dispatch(context.Background(), newEvent(1))
		assert.Equal(t, int32(1), calls.Load())

		d.Unsubscribe(obs)
		assert.Equal(t, 0, d.ObserversCount())
	})

	t.Run("map observer subscribes once and unsubscribes", func(t *testing.T) {
		d := NewDispatcher()
		obs := tallyObserver{}
		other := tallyObserver{}

		d.Subscribe(obs)
		d.Subscribe(obs)
		d.Subscribe(other)
		require.Equal(t, 2, d.ObserversCount())

		d.Dispatch(context.Background(), newEvent(1))
		assert.Equal(t, 1, obs[event.TypeRequestCreated])

		d.Unsubscribe(obs)
		assert.Equal(t, 1, d.ObserversCount())
	})

	t.Run("struct without identity is rejected", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))

		d.Subscribe(taggedObserver{tags: []string{"audit"}})

		assert.Equal(t, 0, d.ObserversCount())
		entry := logger.findEntry("Observer rejected: value has no identity")
		require.NotNil(t, entry)
		assert.Equal(t, "error", entry["level"])
	})
}

func TestDispatch(t *testing.T) {
	t.Run("delivers in subscription order to capable observers", func(t *testing.T) {
		d := NewDispatcher()
		var order []string
		record := func(name string) HandlerFunc {
			return func(ctx context.Context, evt event.Event) error {
				order = append(order, name)
				return nil
			}
		}
		d.Subscribe(NewFuncObserver("first", record("first")))
		d.Subscribe(NewFuncObserver("approvals-only", record("approvals-only"), event.TypeRequestApproved))
		d.Subscribe(NewFuncObserver("third", record("third"), event.TypeRequestCreated))

		report := d.Dispatch(context.Background(), newEvent(1))

		assert.Equal(t, []string{"first", "third"}, order)
		assert.Equal(t, 2, report.Handled)
		assert.Empty(t, report.Failures)
		assert.Equal(t, event.TypeRequestCreated, report.EventType)
	})

	t.Run("isolates a failing observer", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		failing := &countingObserver{name: "failing", err: errors.New("smtp down")}
		healthy := &countingObserver{name: "healthy"}
		d.Subscribe(failing)
		d.Subscribe(healthy)

		report := d.Dispatch(context.Background(), newEvent(7))

		assert.Equal(t, 1, failing.Count())
		assert.Equal(t, 1, healthy.Count())
		assert.Equal(t, 1, report.Handled)
		require.Len(t, report.Failures, 1)
		assert.Equal(t, "failing", report.Failures[0].Observer)
		assert.Equal(t, event.TypeRequestCreated, report.Failures[0].EventType)
		assert.EqualError(t, errors.Unwrap(report.Failures[0]), "smtp down")

		entry := logger.findEntry("Observer error")
		require.NotNil(t, entry)
		assert.Equal(t, "failing", entry["observer"])
		assert.Equal(t, event.TypeRequestCreated, entry["event_type"])
	})

	t.Run("recovers from observer panic", func(t *testing.T) {
		d := NewDispatcher(WithLogger(&mockLogger{}))
		panicking := &countingObserver{name: "panicking", panic: true}
		healthy := &countingObserver{name: "healthy"}
		d.Subscribe(panicking)
		d.Subscribe(healthy)

		var report DispatchReport
		require.NotPanics(t, func() {
			report = d.Dispatch(context.Background(), newEvent(1))
		})

		assert.Equal(t, 1, healthy.Count())
		require.Len(t, report.Failures, 1)
		assert.Contains(t, report.Failures[0].Error(), "observer panic")
	})

	t.Run("records the event before fan-out", func(t *testing.T) {
		d := NewDispatcher()
		var seen int
		d.Subscribe(NewFuncObserver("peek", func(ctx context.Context, evt event.Event) error {
			seen = len(d.History())
			return nil
		}))

		d.Dispatch(context.Background(), newEvent(1))
		assert.Equal(t, 1, seen)
	})

	t.Run("history is kept without observers", func(t *testing.T) {
		d := NewDispatcher()
		report := d.Dispatch(context.Background(), newEvent(1))

		assert.Equal(t, 0, report.Handled)
		assert.Len(t, d.History(), 1)
	})
}

func TestHistory(t *testing.T) {
	t.Run("evicts oldest first", func(t *testing.T) {
		d := NewDispatcher(WithHistoryCapacity(3))
		for i := int64(1); i <= 7; i++ {
			d.Dispatch(context.Background(), newEvent(i))
			assert.LessOrEqual(t, len(d.History()), 3)
		}

		history := d.History()
		require.Len(t, history, 3)
		assert.Equal(t, int64(5), history[0].RequestID())
		assert.Equal(t, int64(6), history[1].RequestID())
		assert.Equal(t, int64(7), history[2].RequestID())
	})

	t.Run("returns a copy", func(t *testing.T) {
		d := NewDispatcher()
		d.Dispatch(context.Background(), newEvent(1))

		history := d.History()
		history[0] = newEvent(99)

		assert.Equal(t, int64(1), d.History()[0].RequestID())
	})

	t.Run("clear keeps subscriptions", func(t *testing.T) {
		d := NewDispatcher(WithHistoryCapacity(2))
		obs := &countingObserver{name: "obs"}
		d.Subscribe(obs)
		d.Dispatch(context.Background(), newEvent(1))
		d.Dispatch(context.Background(), newEvent(2))
		d.Dispatch(context.Background(), newEvent(3))

		d.ClearHistory()
		assert.Empty(t, d.History())
		assert.Equal(t, 1, d.ObserversCount())

		d.Dispatch(context.Background(), newEvent(4))
		history := d.History()
		require.Len(t, history, 1)
		assert.Equal(t, int64(4), history[0].RequestID())
		assert.Equal(t, 4, obs.Count())
	})
}

func TestObservers(t *testing.T) {
	d := NewDispatcher()
	d.Subscribe(&countingObserver{name: "email", types: []event.Type{event.TypeRequestCreated, event.TypeRequestApproved}})
	d.Subscribe(NewFuncObserver("all", func(ctx context.Context, evt event.Event) error { return nil }))

	infos := d.Observers()
	require.Len(t, infos, 2)
	assert.Equal(t, "email", infos[0].Name)
	assert.ElementsMatch(t, []event.Type{event.TypeRequestCreated, event.TypeRequestApproved}, infos[0].Types)
	assert.Equal(t, "all", infos[1].Name)
	assert.Len(t, infos[1].Types, len(event.Types))
}

// panickyObserver panics when asked what it handles
type panickyObserver struct{}

func (*panickyObserver) Name() string                              { return "panicky" }
func (*panickyObserver) CanHandle(event.Type) bool                 { panic("boom") }
func (*panickyObserver) Handle(context.Context, event.Event) error { return nil }

func TestObservers_RecoversCanHandlePanic(t *testing.T) {
	logger := &mockLogger{}
	d := NewDispatcher(WithLogger(logger))
	d.Subscribe(&panickyObserver{})
	d.Subscribe(&countingObserver{name: "email"})

	var infos []ObserverInfo
	require.NotPanics(t, func() { infos = d.Observers() })
	require.Len(t, infos, 2)
	assert.Equal(t, "panicky", infos[0].Name)
	assert.Empty(t, infos[0].Types)
	assert.Equal(t, "email", infos[1].Name)
	assert.NotNil(t, logger.findEntry("Observer panic recovered in CanHandle"))
}

type unnamedObserver struct{}

func (unnamedObserver) CanHandle(event.Type) bool                 { return true }
func (unnamedObserver) Handle(context.Context, event.Event) error { return nil }

func TestObserverName_FallsBackToType(t *testing.T) {
	assert.Equal(t, "dispatcher.unnamedObserver", observerName(unnamedObserver{}))
}

func TestDispatch_Concurrent(t *testing.T) {
	d := NewDispatcher(WithHistoryCapacity(50))
	var handled atomic.Int64
	d.Subscribe(NewFuncObserver("counter", func(ctx context.Context, evt event.Event) error {
		handled.Add(1)
		return nil
	}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			extra := &countingObserver{name: fmt.Sprintf("extra-%d", i), types: []event.Type{event.TypeRequestApproved}}
			d.Subscribe(extra)
			for j := 0; j < 10; j++ {
				d.Dispatch(context.Background(), newEvent(int64(i*10+j)))
			}
			d.Unsubscribe(extra)
			if i%5 == 0 {
				d.ClearHistory()
			}
			_ = d.History()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(200), handled.Load())
	assert.LessOrEqual(t, len(d.History()), 50)
	assert.Equal(t, 1, d.ObserversCount())
}

// recorderStub captures metric calls
type recorderStub struct {
	mu         sync.Mutex
	dispatched int
	handled    map[string]int
	failed     int
	lastSize   int
}

func (r *recorderStub) EventDispatched(event.Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dispatched++
}

func (r *recorderStub) ObserverHandled(observer string, _ event.Type, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handled == nil {
		r.handled = make(map[string]int)
	}
	r.handled[observer]++
	if err != nil {
		r.failed++
	}
}

func (r *recorderStub) HistorySize(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastSize = n
}

func TestDispatch_RecordsMetrics(t *testing.T) {
	rec := &recorderStub{}
	d := NewDispatcher(WithMetrics(rec))
	d.Subscribe(&countingObserver{name: "ok"})
	d.Subscribe(&countingObserver{name: "bad", err: errors.New("nope")})

	d.Dispatch(context.Background(), newEvent(1))
	d.Dispatch(context.Background(), newEvent(2))

	assert.Equal(t, 2, rec.dispatched)
	assert.Equal(t, 2, rec.handled["ok"])
	assert.Equal(t, 2, rec.failed)
	assert.Equal(t, 2, rec.lastSize)

	d.ClearHistory()
	assert.Equal(t, 0, rec.lastSize)
}
