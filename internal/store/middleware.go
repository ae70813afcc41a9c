package store

// TypeThunk marks an action whose payload is a ThunkFunc.
const TypeThunk = "@@shell/THUNK"

// ThunkFunc is an async action body. It receives the outermost
// dispatch, a state accessor, and whatever the backend accessor
// configured on the middleware returns (typically the identity
// backend client).
type ThunkFunc func(dispatch Dispatcher, getState func() any, backend any)

// Thunk wraps fn into a dispatchable action.
func Thunk(fn ThunkFunc) Action {
	return Action{Type: TypeThunk, Payload: fn}
}

// ThunkMiddleware executes thunk actions instead of forwarding them.
// backendAccessor is evaluated per thunk so the backend handle may be
// constructed lazily. Plain actions pass through unchanged.
func ThunkMiddleware(backendAccessor func() any) Middleware {
	return func(s *Store, next Dispatcher) Dispatcher {
		return func(action Action) {
			if action.Type == TypeThunk {
				if fn, ok := action.Payload.(ThunkFunc); ok {
					var backend any
					if backendAccessor != nil {
						backend = backendAccessor()
					}
					fn(s.Dispatch, s.GetState, backend)
					return
				}
			}
			next(action)
		}
	}
}
