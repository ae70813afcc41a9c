package store

import (
	"sync"

	"github.com/google/uuid"
)

// TypeInit is dispatched once during New so every combined reducer
// materializes its slice before the first caller reads state.
const TypeInit = "@@shell/INIT"

// Action describes a single state transition. Payload carries
// action-specific data and may be nil.
type Action struct {
	Type    string
	Payload any
}

// Reducer computes the next state for a slice (or the whole tree) from
// the previous state and an action. Reducers must not mutate prev.
type Reducer func(prev any, action Action) any

// Dispatcher is the dispatch function signature middlewares wrap.
type Dispatcher func(Action)

// Middleware wraps the dispatch chain with cross-cutting behavior.
// The store pointer gives middlewares access to GetState and to the
// outermost Dispatch for re-entry.
type Middleware func(s *Store, next Dispatcher) Dispatcher

// Store holds the application state tree and its listener registry.
// Exactly one Store exists per running shell instance.
type Store struct {
	mu        sync.Mutex
	state     any
	reducer   Reducer
	listeners map[uuid.UUID]func()
	dispatch  Dispatcher
}

// New creates a store around reducer, seeded with initialState.
// Middlewares wrap dispatch outermost-first: middlewares[0] sees every
// action before middlewares[1], and so on. New dispatches TypeInit so
// reducers populate their slices even when the seed is empty.
func New(reducer Reducer, initialState any, middlewares ...Middleware) *Store {
	s := &Store{
		state:     initialState,
		reducer:   reducer,
		listeners: make(map[uuid.UUID]func()),
	}

	s.dispatch = s.reduce
	for i := len(middlewares) - 1; i >= 0; i-- {
		s.dispatch = middlewares[i](s, s.dispatch)
	}

	s.Dispatch(Action{Type: TypeInit})
	return s
}

// GetState returns the current state tree. The returned value must be
// treated as read-only; updates go through Dispatch.
func (s *Store) GetState() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch runs action through the middleware chain and the reducer,
// then notifies all listeners. Reduction is serialized; listeners run
// outside the lock so they may read state or dispatch again.
func (s *Store) Dispatch(action Action) {
	s.dispatch(action)
}

// Subscribe registers fn to run after every dispatched action. It
// returns an unsubscribe function that is safe to call more than once.
// Listeners receive no arguments; they re-read state via GetState.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New()
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// ListenerCount returns the number of registered listeners.
func (s *Store) ListenerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

func (s *Store) reduce(action Action) {
	s.mu.Lock()
	s.state = s.reducer(s.state, action)

	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
