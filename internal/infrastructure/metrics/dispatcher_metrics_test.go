package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/caf-approval/internal/application/dispatcher"
	"github.com/garyjia/caf-approval/internal/domain/entity"
	"github.com/garyjia/caf-approval/internal/domain/event"
)

func TestDispatcherMetrics_RecordsDispatch(t *testing.T) {
	m := NewDispatcherMetrics()
	d := dispatcher.NewDispatcher(dispatcher.WithMetrics(m))
	d.Subscribe(dispatcher.NewFuncObserver("ok", func(context.Context, event.Event) error { return nil }))
	d.Subscribe(dispatcher.NewFuncObserver("broken", func(context.Context, event.Event) error { return errors.New("boom") }))

	d.Dispatch(context.Background(), event.NewRequestCreated(entity.Request{ID: 1}, time.Time{}))
	d.Dispatch(context.Background(), event.NewRequestCreated(entity.Request{ID: 2}, time.Time{}))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.eventsDispatched.WithLabelValues("request.created")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.observerCalls.WithLabelValues("ok", "request.created", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.observerCalls.WithLabelValues("broken", "request.created", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.historySize))

	d.ClearHistory()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.historySize))
}

func TestDispatcherMetrics_Handler(t *testing.T) {
	m := NewDispatcherMetrics()
	m.EventDispatched(event.TypeRequestApproved)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `caf_dispatcher_events_total{event_type="request.approved"} 1`)
}
