package server

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/cijokb/friendlypix-web-react/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // state snapshots carry no secrets beyond the page's own
	},
}

// handlePageSocket upgrades the connection and streams store snapshots
// for the given page UUID until the client disconnects.
func (s *Server) handlePageSocket(c echo.Context) error {
	pageUUID, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		return c.String(http.StatusBadRequest, "Invalid UUID")
	}

	_, _, broadcaster, mounted := s.view()
	if !mounted {
		return c.String(http.StatusServiceUnavailable, "Application is starting")
	}

	ip := c.RealIP()
	ok, reason := s.limiter.Acquire(ip)
	if !ok {
		logging.WithPage(pageUUID.String()).Warn("Connection rejected", "reason", string(reason), "ip", ip)
		return c.String(http.StatusTooManyRequests, "Connection limit reached")
	}
	defer s.limiter.Release()

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade WebSocket: %w", err)
	}

	if err := broadcaster.Register(pageUUID, conn); err != nil {
		logging.WithPage(pageUUID.String()).Warn("Failed to register client", "error", err)
		conn.Close()
		return nil
	}

	// Read pump - blocks until connection closes
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	broadcaster.Unregister(pageUUID, conn)
	return nil
}
