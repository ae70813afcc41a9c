// Package shell assembles the application state container: every
// registered feature reducer plus the routing and session slices,
// wrapped with the thunk, location-sync, and backend-sync
// augmentations in that order.
package shell

import (
	"fmt"
	"sync"

	"github.com/cijokb/friendlypix-web-react/internal/backend"
	"github.com/cijokb/friendlypix-web-react/internal/history"
	"github.com/cijokb/friendlypix-web-react/internal/metrics"
	"github.com/cijokb/friendlypix-web-react/internal/session"
	"github.com/cijokb/friendlypix-web-react/internal/store"
)

var (
	registryMu sync.Mutex
	registry   = make(map[string]store.Reducer)
)

// RegisterReducer adds a feature reducer under name, typically from an
// init function in the feature package. The routing and session slice
// names are reserved. Duplicate or reserved names panic: both are
// wiring mistakes, not runtime conditions.
func RegisterReducer(name string, r store.Reducer) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if name == history.SliceName || name == session.SliceName {
		panic(fmt.Sprintf("shell: reducer name %q is reserved", name))
	}
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("shell: reducer %q registered twice", name))
	}
	registry[name] = r
}

// NewStore builds the one state container for a shell instance from
// the registered feature reducers. initialState is the server-rendered
// snapshot and may be nil. The returned Sync is already started; its
// configuration is fixed here, redirect handling stays disabled.
func NewStore(h *history.History, client backend.Client, initialState map[string]any) (*store.Store, *session.Sync) {
	registryMu.Lock()
	reducers := make(map[string]store.Reducer, len(registry))
	for name, r := range registry {
		reducers[name] = r
	}
	registryMu.Unlock()

	return NewStoreWith(reducers, h, client, initialState)
}

// NewStoreWith is NewStore with an explicit reducer set, extras are
// appended innermost so they observe plain actions without disturbing
// the augmentation order.
func NewStoreWith(reducers map[string]store.Reducer, h *history.History, client backend.Client, initialState map[string]any, extras ...store.Middleware) (*store.Store, *session.Sync) {
	combined := make(map[string]store.Reducer, len(reducers)+2)
	for name, r := range reducers {
		combined[name] = r
	}
	combined[history.SliceName] = history.Reducer
	combined[session.SliceName] = session.Reducer

	sync := session.NewSync(client, session.Options{EnableRedirectHandling: false})

	var seed any
	if initialState != nil {
		seed = initialState
	}

	middlewares := make([]store.Middleware, 0, 4+len(extras))
	middlewares = append(middlewares,
		store.ThunkMiddleware(func() any { return client }),
		history.Middleware(h),
		sync.Middleware(),
	)
	middlewares = append(middlewares, extras...)
	// Innermost so it counts the plain actions that reach the reducer.
	middlewares = append(middlewares, metrics.StoreMiddleware())

	st := store.New(store.CombineReducers(combined), seed, middlewares...)

	history.Connect(h, st)
	sync.Start(st)

	return st, sync
}
