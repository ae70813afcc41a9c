package session

import (
	"context"
	"log/slog"

	"github.com/cijokb/friendlypix-web-react/internal/backend"
	"github.com/cijokb/friendlypix-web-react/internal/history"
	"github.com/cijokb/friendlypix-web-react/internal/store"
)

// Options configures the backend sync augmentation.
type Options struct {
	// EnableRedirectHandling lets the sync follow post-sign-in redirect
	// targets by dispatching a navigation. The shell always runs with
	// this disabled: navigation side effects stay with the router.
	EnableRedirectHandling bool
}

// Sync bridges the identity backend into the store: backend session
// resolution becomes a dispatched action, and sign-out actions flow
// back to the backend.
type Sync struct {
	client backend.Client
	opts   Options
}

// NewSync creates the augmentation around client.
func NewSync(client backend.Client, opts Options) *Sync {
	return &Sync{client: client, opts: opts}
}

// Options returns the configuration the sync was built with.
func (s *Sync) Options() Options {
	return s.opts
}

// Middleware observes the dispatch stream. Sign-out actions are
// forwarded to the backend before reduction; sign-in redirect targets
// are followed only when redirect handling is enabled.
func (s *Sync) Middleware() store.Middleware {
	return func(st *store.Store, next store.Dispatcher) store.Dispatcher {
		return func(action store.Action) {
			switch action.Type {
			case TypeSignedOut:
				if err := s.client.SignOut(context.Background()); err != nil {
					slog.Warn("Backend sign-out failed", "error", err)
				}
			case TypeSignedIn:
				if p, ok := action.Payload.(signInPayload); ok && p.redirect != "" && s.opts.EnableRedirectHandling {
					defer st.Dispatch(history.Navigate(p.redirect))
				}
			}
			next(action)
		}
	}
}

// Start attaches the backend auth-state listener to st. Each backend
// resolution event becomes a TypeLoaded dispatch, which is what flips
// the slice's IsLoaded flag. The returned stop detaches the listener.
func (s *Sync) Start(st *store.Store) (stop func()) {
	return s.client.OnAuthStateChanged(func(user *backend.User) {
		st.Dispatch(Loaded(user))
	})
}
