package server

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cijokb/friendlypix-web-react/internal/backend"
	"github.com/cijokb/friendlypix-web-react/internal/bootstrap"
	"github.com/cijokb/friendlypix-web-react/internal/errors"
	appredis "github.com/cijokb/friendlypix-web-react/internal/redis"
)

const contextKeyUser = "user"

// requireSession authenticates the __session cookie against the
// session record store. A token with no record gets one chance at
// direct verification, so records lost to Redis restarts heal
// transparently.
func (s *Server) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(bootstrap.SessionCookieName)
		if err != nil || cookie.Value == "" {
			return errors.UnauthorizedError("no active session")
		}

		ctx, cancel := contextWithTimeout(c, verifyTimeout)
		defer cancel()

		user, err := s.sessions.Authenticate(ctx, cookie.Value)
		if err == appredis.ErrSessionNotFound {
			user, err = s.verifier.VerifySessionToken(ctx, cookie.Value)
			if err == nil {
				err = s.sessions.Save(ctx, cookie.Value, user)
			}
		}
		if err != nil {
			return errors.UnauthorizedError("session token rejected")
		}

		c.Set(contextKeyUser, user)
		return next(c)
	}
}

func currentUser(c echo.Context) *backend.User {
	user, _ := c.Get(contextKeyUser).(*backend.User)
	return user
}

func contextWithTimeout(c echo.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), d)
}
