package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/caf-approval/internal/application/workflow"
	"github.com/garyjia/caf-approval/internal/domain/entity"
	domainwf "github.com/garyjia/caf-approval/internal/domain/workflow"
)

// Version is reported by the health check
var Version = "1.0.0"

// Handlers contains the request lifecycle handlers
type Handlers struct {
	engine workflow.Engine
	logger Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(engine workflow.Engine, logger Logger) *Handlers {
	return &Handlers{engine: engine, logger: logger}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Field   string      `json:"field,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// DecisionRequest is the body of POST /api/v1/requests/:id/decision
type DecisionRequest struct {
	TargetState    string `json:"target_state" binding:"required"`
	Comments       string `json:"comments"`
	ReviewingActor string `json:"reviewing_actor" binding:"omitempty,email"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   Version,
		},
	})
}

// CreateRequest handles POST /api/v1/requests
func (h *Handlers) CreateRequest(c *gin.Context) {
	var payload entity.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	req, err := h.engine.Create(c.Request.Context(), payload)
	if err != nil {
		h.writeError(c, "Failed to create request", err)
		return
	}

	h.logger.Info("Request created", "request_id", req.ID, "contract_type", req.Fields.ContractType)
	c.JSON(http.StatusCreated, Response{Success: true, Data: req})
}

// GetRequest handles GET /api/v1/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	req, err := h.engine.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "Failed to get request", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// DecideRequest handles POST /api/v1/requests/:id/decision
func (h *Handlers) DecideRequest(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	var body DecisionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "invalid decision body", err)
		return
	}

	target := domainwf.State(strings.ToUpper(strings.TrimSpace(body.TargetState)))
	req, err := h.engine.Decide(c.Request.Context(), id, target, body.Comments, body.ReviewingActor)
	if err != nil {
		h.writeError(c, "Failed to record decision", err)
		return
	}

	h.logger.Info("Decision recorded", "request_id", id, "state", req.State.String())
	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// CorrectRequest handles PUT and PATCH /api/v1/requests/:id
func (h *Handlers) CorrectRequest(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	var payload entity.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	req, err := h.engine.ApplyCorrection(c.Request.Context(), id, payload)
	if err != nil {
		h.writeError(c, "Failed to update request", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

func (h *Handlers) requestID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		h.logger.Error("Invalid request ID", "id", idStr)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request ID",
		})
		return 0, false
	}
	return id, true
}

func (h *Handlers) badRequest(c *gin.Context, msg string, err error) {
	h.logger.Error("Invalid request body", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   msg + ": " + err.Error(),
	})
}

// writeError maps engine errors to status codes: not found 404,
// validation 400, anything else 500 without internal detail
func (h *Handlers) writeError(c *gin.Context, msg string, err error) {
	var verr *domainwf.ValidationError
	switch {
	case errors.Is(err, domainwf.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error(), Field: verr.Field})
	case errors.Is(err, domainwf.ErrValidation):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
	default:
		h.logger.Error(msg, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal server error"})
	}
}
