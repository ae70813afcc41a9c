package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cijokb/friendlypix-web-react/internal/bootstrap"
	"github.com/cijokb/friendlypix-web-react/internal/errors"
	"github.com/cijokb/friendlypix-web-react/internal/logging"
)

const verifyTimeout = 10 * time.Second

type sessionCreateRequest struct {
	Token string `json:"token"`
}

// handleSessionCreate verifies a session token against the identity
// backend and persists the record so later requests skip verification.
func (s *Server) handleSessionCreate(c echo.Context) error {
	var req sessionCreateRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError("malformed request body")
	}

	token := req.Token
	if token == "" {
		if cookie, err := c.Cookie(bootstrap.SessionCookieName); err == nil {
			token = cookie.Value
		}
	}
	if token == "" {
		return errors.ValidationError("missing session token")
	}

	ctx, cancel := contextWithTimeout(c, verifyTimeout)
	defer cancel()

	user, err := s.verifier.VerifySessionToken(ctx, token)
	if err != nil {
		return errors.UnauthorizedError("session token rejected")
	}

	if err := s.sessions.Save(ctx, token, user); err != nil {
		return errors.InternalError("failed to persist session", err)
	}

	c.SetCookie(&http.Cookie{
		Name:     bootstrap.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	})

	logging.WithUser(user.UID).Info("Session established")
	return c.JSON(http.StatusCreated, user)
}

// handleSessionEnd revokes the session record and clears the cookie.
func (s *Server) handleSessionEnd(c echo.Context) error {
	cookie, err := c.Cookie(bootstrap.SessionCookieName)
	if err != nil {
		return errors.UnauthorizedError("no active session")
	}

	ctx, cancel := contextWithTimeout(c, verifyTimeout)
	defer cancel()

	if err := s.sessions.Revoke(ctx, cookie.Value); err != nil {
		return errors.InternalError("failed to revoke session", err)
	}

	c.SetCookie(&http.Cookie{
		Name:     bootstrap.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	return c.NoContent(http.StatusNoContent)
}

// handleMe returns the identity attached by requireSession.
func (s *Server) handleMe(c echo.Context) error {
	return c.JSON(http.StatusOK, currentUser(c))
}
