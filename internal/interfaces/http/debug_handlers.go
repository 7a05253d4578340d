package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/caf-approval/internal/application/dispatcher"
	"github.com/garyjia/caf-approval/internal/infrastructure/eventstream"
)

const (
	defaultEventsLimit = 10
	maxEventsLimit     = 1000
)

// DebugHandlers expose the dispatcher state
type DebugHandlers struct {
	monitor ObserverMonitor
	logger  Logger
}

func NewDebugHandlers(monitor ObserverMonitor, logger Logger) *DebugHandlers {
	return &DebugHandlers{monitor: monitor, logger: logger}
}

// StatusResponse is returned by GET /api/v1/observers/status
type StatusResponse struct {
	ObserversCount  int                       `json:"observers_count"`
	Observers       []dispatcher.ObserverInfo `json:"observers"`
	EventsProcessed int                       `json:"events_processed"`
	HistoryCapacity int                       `json:"history_capacity"`
}

// EventsResponse is returned by GET /api/v1/observers/events
type EventsResponse struct {
	Total  int                    `json:"total"`
	Events []eventstream.Envelope `json:"events"`
}

// Status handles GET /api/v1/observers/status
func (h *DebugHandlers) Status(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: StatusResponse{
			ObserversCount:  h.monitor.ObserversCount(),
			Observers:       h.monitor.Observers(),
			EventsProcessed: len(h.monitor.History()),
			HistoryCapacity: h.monitor.HistoryCapacity(),
		},
	})
}

// Events handles GET /api/v1/observers/events and returns the newest
// events, oldest first
func (h *DebugHandlers) Events(c *gin.Context) {
	limit := defaultEventsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}
	if limit > maxEventsLimit {
		limit = maxEventsLimit
	}

	history := h.monitor.History()
	if len(history) > limit {
		history = history[len(history)-limit:]
	}

	events := make([]eventstream.Envelope, 0, len(history))
	for _, evt := range history {
		env, err := eventstream.NewEnvelope(evt)
		if err != nil {
			h.logger.Error("Failed to render event", "event_id", evt.ID(), "error", err)
			continue
		}
		events = append(events, env)
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    EventsResponse{Total: len(h.monitor.History()), Events: events},
	})
}

// ClearHistory handles POST /api/v1/observers/clear-history
func (h *DebugHandlers) ClearHistory(c *gin.Context) {
	h.monitor.ClearHistory()
	h.logger.Info("Event history cleared")
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"message": "event history cleared"}})
}
