package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"task-rotation-api/internal/apperrors"
	"task-rotation-api/internal/assignment"
	"task-rotation-api/internal/audit"
	"task-rotation-api/internal/realtime"
)

// Handler serves the HTTP API on top of the assignment engine.
type Handler struct {
	svc    *assignment.Service
	audit  *audit.Recorder
	hub    *realtime.Hub
	logger *zap.Logger
}

// New builds a Handler. recorder may be nil when the audit trail is disabled.
func New(svc *assignment.Service, recorder *audit.Recorder, hub *realtime.Hub, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, audit: recorder, hub: hub, logger: logger}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

func (h *Handler) respondError(c *gin.Context, err error) {
	domainErr := apperrors.ToDomainError(err)
	if domainErr.HTTPStatus >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(domainErr.HTTPStatus, ErrorResponse{
		Error:   domainErr.Message,
		Code:    domainErr.Code,
		Details: domainErr.Details,
	})
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	h.respondError(c, apperrors.NewValidation("Invalid request body: "+err.Error()))
}
