// Package ready exposes the one-shot auth-readiness signal: a channel
// that closes when the session slice first reports that initial
// authentication resolution has completed.
package ready

import (
	"context"
	"time"

	"github.com/cijokb/friendlypix-web-react/internal/metrics"
	"github.com/cijokb/friendlypix-web-react/internal/session"
	"github.com/cijokb/friendlypix-web-react/internal/store"
)

// DefaultSlice is where WhenReady looks for the auth state.
const DefaultSlice = session.SliceName

// WhenReady is WhenReadyIn with the default slice name.
func WhenReady(st *store.Store) <-chan struct{} {
	return WhenReadyIn(st, DefaultSlice)
}

// WhenReadyIn returns a channel that closes once
// state[sliceName].auth.isLoaded is true. An empty sliceName reads the
// auth state from the root of the tree instead, for stores that did
// not namespace the session reducer.
//
// If the condition already holds, the returned channel is closed and
// no store subscription is created. Otherwise a listener re-checks on
// every dispatch and tears itself down on the first success; the
// channel closes exactly once no matter how many notifications follow.
//
// There is no timeout. If the condition never becomes true the channel
// never closes and the listener lives as long as the store, which
// itself lives for the shell's lifetime.
func WhenReadyIn(st *store.Store, sliceName string) <-chan struct{} {
	done := make(chan struct{})

	if isLoaded(st.GetState(), sliceName) {
		close(done)
		return done
	}

	notify := make(chan struct{}, 1)
	unsubscribe := st.Subscribe(func() {
		select {
		case notify <- struct{}{}:
		default:
		}
	})

	go func() {
		defer unsubscribe()
		for {
			// Checking before the first wait closes the window between
			// the caller's check and the subscription above.
			if isLoaded(st.GetState(), sliceName) {
				close(done)
				return
			}
			<-notify
		}
	}()

	return done
}

// Wait blocks until the gate opens or ctx is cancelled. Bootstrap uses
// this so process shutdown is not wedged behind a backend that never
// resolves; the gate itself still has no timeout.
func Wait(ctx context.Context, st *store.Store) error {
	start := time.Now()
	select {
	case <-WhenReady(st):
		metrics.AuthReadinessSeconds.Observe(time.Since(start).Seconds())
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func isLoaded(state any, sliceName string) bool {
	v := state
	if sliceName != "" {
		tree, ok := state.(map[string]any)
		if !ok {
			return false
		}
		v = tree[sliceName]
	}

	switch t := v.(type) {
	case session.State:
		return t.Auth.IsLoaded
	case *session.State:
		return t != nil && t.Auth.IsLoaded
	case map[string]any:
		auth, _ := t["auth"].(map[string]any)
		loaded, _ := auth["isLoaded"].(bool)
		return loaded
	}
	return false
}
