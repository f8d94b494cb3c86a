// Package v1 provides the version 1 HTTP handlers for the outreach service.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/xiaot623/gogo/outreach/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service         *service.Service
	verificationKey string
	logger          *zap.Logger
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service, verificationKey string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service:         service,
		verificationKey: verificationKey,
		logger:          logger,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Sequence API
	e.POST("/v1/sequences", h.GenerateSequence, h.RequireVerificationKey)
	e.POST("/generate-sequence", h.GenerateSequence, h.RequireVerificationKey)
	e.GET("/v1/sequences/:sequence_id", h.GetSequence, h.RequireVerificationKey)

	e.GET("/health", h.Health)
}

// Health reports whether the database answers.
// GET /health
func (h *Handler) Health(c echo.Context) error {
	if err := h.service.Healthy(c.Request().Context()); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, map[string]bool{"ok": false})
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}
