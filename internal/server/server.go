package server

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/sessions"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/cijokb/friendlypix-web-react/internal/backend"
	"github.com/cijokb/friendlypix-web-react/internal/broadcast"
	"github.com/cijokb/friendlypix-web-react/internal/config"
	"github.com/cijokb/friendlypix-web-react/internal/errors"
	"github.com/cijokb/friendlypix-web-react/internal/history"
	appredis "github.com/cijokb/friendlypix-web-react/internal/redis"
	"github.com/cijokb/friendlypix-web-react/internal/store"
)

//go:embed templates/shell.html
var templateFS embed.FS

const browserSessionName = "fp_browser"

// TokenVerifier checks session tokens against the identity backend.
// *backend.FirebaseClient satisfies this.
type TokenVerifier interface {
	VerifySessionToken(ctx context.Context, token string) (*backend.User, error)
}

type Server struct {
	echo         *echo.Echo
	config       *config.Config
	clock        clockwork.Clock
	sessions     *appredis.SessionStore
	redisClient  *appredis.Client
	verifier     TokenVerifier
	cookieStore  *sessions.CookieStore
	shellTmpl    *template.Template
	limiter      *ConnectionLimiter
	startTime    time.Time

	mu            sync.RWMutex
	mounted       bool
	st            *store.Store
	h             *history.History
	broadcaster   *broadcast.Broadcaster
	sessionCookie string // value for the __session cookie on shell responses
}

// NewServer builds the HTTP surface. The root view is not served until
// the bootstrap sequence mounts it.
func NewServer(cfg *config.Config, sessionStore *appredis.SessionStore, redisClient *appredis.Client, verifier TokenVerifier, clock clockwork.Clock) (*Server, error) {
	shellTmpl, err := template.ParseFS(templateFS, "templates/shell.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse shell template: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(errors.Middleware())

	cookieStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	cookieStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   cfg.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	}

	srv := &Server{
		echo:        e,
		config:      cfg,
		clock:       clock,
		sessions:    sessionStore,
		redisClient: redisClient,
		verifier:    verifier,
		cookieStore: cookieStore,
		shellTmpl:   shellTmpl,
		limiter:     NewConnectionLimiter(cfg.MaxClientsPerPage * 10),
		startTime:   clock.Now(),
	}

	srv.registerRoutes()
	return srv, nil
}

// Start begins serving. Blocks until Shutdown.
func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

// Shutdown stops the listener and, if mounted, the broadcaster.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	broadcaster := s.broadcaster
	s.mu.Unlock()

	if broadcaster != nil {
		broadcaster.Stop()
	}
	return s.echo.Shutdown(ctx)
}

// --- bootstrap collaborator roles ---

// Interactive reports whether this process hosts the page. Headless
// deployments (render workers) skip bootstrap entirely.
func (s *Server) Interactive() bool {
	return !s.config.Headless
}

// InitialState is the server-rendered snapshot the store is seeded
// from. This surface renders no feature state ahead of time.
func (s *Server) InitialState() map[string]any {
	return nil
}

// SetCookie records the value served as the named cookie on shell
// responses. Only the __session cookie is expected here.
func (s *Server) SetCookie(name, value string) error {
	if name != "__session" {
		return fmt.Errorf("unexpected cookie %q", name)
	}
	s.mu.Lock()
	s.sessionCookie = value
	s.mu.Unlock()
	return nil
}

// Mount attaches the root view: from here on the shell page is served
// wired to st and h, and state snapshots stream to WebSocket clients.
func (s *Server) Mount(target string, st *store.Store, h *history.History) error {
	if target != "app" {
		return fmt.Errorf("unknown mount target %q", target)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mounted {
		return fmt.Errorf("root view already mounted")
	}
	s.mounted = true
	s.st = st
	s.h = h
	s.broadcaster = broadcast.NewBroadcaster(st, s.clock, s.config.MaxClientsPerPage)
	return nil
}

func (s *Server) view() (*store.Store, *history.History, *broadcast.Broadcaster, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st, s.h, s.broadcaster, s.mounted
}
