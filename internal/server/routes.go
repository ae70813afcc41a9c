package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (no auth required)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Root shell page (503 until the bootstrap sequence mounts it)
	s.echo.GET("/", s.handleShellPage)

	// Session lifecycle
	s.echo.POST("/session", s.handleSessionCreate)
	s.echo.POST("/session/end", s.handleSessionEnd, s.requireSession)
	s.echo.GET("/me", s.handleMe, s.requireSession)

	// State snapshot stream per page instance
	s.echo.GET("/ws/page/:uuid", s.handlePageSocket)
}
