package server

import (
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/cijokb/friendlypix-web-react/internal/bootstrap"
	"github.com/cijokb/friendlypix-web-react/internal/errors"
	"github.com/cijokb/friendlypix-web-react/internal/logging"
	"github.com/cijokb/friendlypix-web-react/internal/session"
)

const sessionKeyPageUUID = "page_uuid"

// handleShellPage renders the application shell with the serialized
// store state inlined. Each browser gets a stable page UUID, kept in
// the cookie session, that scopes its snapshot stream.
func (s *Server) handleShellPage(c echo.Context) error {
	st, h, _, mounted := s.view()
	if !mounted {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"error": "application is starting",
		})
	}

	pageUUID, err := s.pageUUIDFor(c)
	if err != nil {
		return errors.InternalError("failed to establish page session", err)
	}

	state := st.GetState()
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return errors.InternalError("failed to serialize state", err)
	}

	auth := authSlice(state)

	s.mu.RLock()
	sessionCookie := s.sessionCookie
	s.mu.RUnlock()
	if sessionCookie != "" {
		c.SetCookie(&http.Cookie{
			Name:     bootstrap.SessionCookieName,
			Value:    sessionCookie,
			Path:     "/",
			HttpOnly: true,
			Secure:   s.config.AppEnv == "production",
			SameSite: http.SameSiteLaxMode,
		})
	}

	data := map[string]any{
		"MountID":     bootstrap.MountPointID,
		"Path":        h.Location().Path,
		"SignedIn":    auth.SignedIn(),
		"DisplayName": auth.Auth.DisplayName,
		"StateJSON":   template.JS(stateJSON),
		"PageUUID":    pageUUID.String(),
	}

	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	if err := s.shellTmpl.Execute(c.Response(), data); err != nil {
		logging.WithError(err).Error("Failed to render shell page")
		return err
	}
	return nil
}

// pageUUIDFor returns the page UUID from the browser session, minting
// and persisting a fresh one on first visit.
func (s *Server) pageUUIDFor(c echo.Context) (uuid.UUID, error) {
	sess, err := s.cookieStore.Get(c.Request(), browserSessionName)
	if err != nil {
		// Tampered or stale cookie: fall through with a fresh session.
		sess, err = s.cookieStore.New(c.Request(), browserSessionName)
		if err != nil {
			return uuid.Nil, err
		}
	}

	if raw, ok := sess.Values[sessionKeyPageUUID].(string); ok {
		if parsed, err := uuid.Parse(raw); err == nil {
			return parsed, nil
		}
	}

	pageUUID := uuid.New()
	sess.Values[sessionKeyPageUUID] = pageUUID.String()
	if err := sess.Save(c.Request(), c.Response().Writer); err != nil {
		return uuid.Nil, err
	}
	return pageUUID, nil
}

func authSlice(state any) session.State {
	m, ok := state.(map[string]any)
	if !ok {
		return session.State{}
	}
	slice, ok := m[session.SliceName].(session.State)
	if !ok {
		return session.State{}
	}
	return slice
}
