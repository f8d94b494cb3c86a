// Package http provides the HTTP server implementation for the outreach service.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/xiaot623/gogo/outreach/internal/service"
	v1 "github.com/xiaot623/gogo/outreach/internal/transport/http/v1"
)

// NewServer creates and configures the public HTTP server.
func NewServer(svc *service.Service, verificationKey string, logger *zap.Logger) *echo.Echo {
	if logger == nil {
		logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.Error(v.Error),
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	// Handlers
	v1Handler := v1.NewHandler(svc, verificationKey, logger)

	// Register Routes
	v1Handler.RegisterRoutes(e)

	return e
}
