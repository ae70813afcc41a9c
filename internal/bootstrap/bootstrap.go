// Package bootstrap runs the shell's entry sequence: build the
// identity backend client, expose its session token as the __session
// cookie, assemble the state container, wait for auth readiness, and
// mount the root view. Collaborators are injected so the sequence
// itself carries no HTTP or rendering machinery.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cijokb/friendlypix-web-react/internal/backend"
	"github.com/cijokb/friendlypix-web-react/internal/history"
	"github.com/cijokb/friendlypix-web-react/internal/ready"
	"github.com/cijokb/friendlypix-web-react/internal/shell"
	"github.com/cijokb/friendlypix-web-react/internal/store"
)

const (
	// SessionCookieName is consumed by server-side collaborators to
	// authenticate server-rendered requests.
	SessionCookieName = "__session"

	// MountPointID is the attachment point the root view mounts into.
	MountPointID = "app"
)

// Runtime describes the hosting environment. Bootstrap runs only in
// interactive runtimes; elsewhere (render-only workers, CLI tooling)
// mounting belongs to a separate entry point.
type Runtime interface {
	Interactive() bool
	// InitialState is the server-rendered state snapshot, nil if the
	// collaborator produced none.
	InitialState() map[string]any
}

// CookieWriter receives the session token for server-side consumption.
type CookieWriter interface {
	SetCookie(name, value string) error
}

// Renderer mounts the root view, wired to the finished store and
// history, into the attachment point named by target.
type Renderer interface {
	Mount(target string, st *store.Store, h *history.History) error
}

// NewClientFunc builds the identity backend client. Injected so tests
// run without the hosted service.
type NewClientFunc func(ctx context.Context, cfg backend.Config) (backend.Client, error)

// Deps are the collaborators one Bootstrap instance wires together.
type Deps struct {
	Runtime      Runtime
	ArtifactPath string
	NewClient    NewClientFunc
	Cookies      CookieWriter
	Renderer     Renderer
}

// Bootstrap runs the entry sequence at most meaningfully once: the
// backend client is created a single time per instance no matter how
// often Run is called.
type Bootstrap struct {
	deps Deps

	clientOnce sync.Once
	client     backend.Client
	clientErr  error
}

// New creates a Bootstrap around deps.
func New(deps Deps) *Bootstrap {
	return &Bootstrap{deps: deps}
}

// Client returns the backend client, nil before the first Run.
func (b *Bootstrap) Client() backend.Client {
	return b.client
}

// Run executes the sequence. In a non-interactive runtime it returns
// immediately with nothing constructed. There is no error handling
// layer here: any failure aborts the sequence and propagates to the
// caller's error reporting. The readiness wait itself never fails;
// only ctx cancellation can end it early.
func (b *Bootstrap) Run(ctx context.Context) error {
	if !b.deps.Runtime.Interactive() {
		slog.Debug("Non-interactive runtime, skipping bootstrap")
		return nil
	}

	cfg, err := backend.LoadConfigArtifact(b.deps.ArtifactPath)
	if err != nil {
		return err
	}

	b.clientOnce.Do(func() {
		b.client, b.clientErr = b.deps.NewClient(ctx, cfg)
	})
	if b.clientErr != nil {
		return b.clientErr
	}

	token, err := b.client.IdentityToken(ctx)
	if err != nil {
		return err
	}
	if err := b.deps.Cookies.SetCookie(SessionCookieName, token); err != nil {
		return err
	}

	h := history.New()
	st, _ := shell.NewStore(h, b.client, b.deps.Runtime.InitialState())

	slog.Info("Waiting for auth readiness")
	if err := ready.Wait(ctx, st); err != nil {
		return fmt.Errorf("bootstrap aborted before auth readiness: %w", err)
	}

	slog.Info("Auth ready, mounting root view", "target", MountPointID)
	return b.deps.Renderer.Mount(MountPointID, st, h)
}
