package history

import (
	"github.com/cijokb/friendlypix-web-react/internal/store"
)

// SliceName is the routing partition of the state tree.
const SliceName = "routing"

// Action types owned by this package. TypeNavigate requests a history
// method call; TypeLocationChanged records the result. Only Connect
// dispatches TypeLocationChanged, which keeps the history manager the
// single writer of the routing slice.
const (
	TypeNavigate        = "router/NAVIGATE"
	TypeLocationChanged = "router/LOCATION_CHANGED"
)

type navigation struct {
	method string // "push" or "replace"
	target string
}

// Navigate builds an action that pushes target onto the history.
func Navigate(target string) store.Action {
	return store.Action{Type: TypeNavigate, Payload: navigation{method: "push", target: target}}
}

// Redirect builds an action that replaces the current entry with target.
func Redirect(target string) store.Action {
	return store.Action{Type: TypeNavigate, Payload: navigation{method: "replace", target: target}}
}

// State is the routing slice: the last location reported by the
// history manager.
type State struct {
	Location Location
}

// Reducer maintains the routing slice. Anything other than a location
// change leaves the slice untouched.
func Reducer(prev any, action store.Action) any {
	state, ok := prev.(State)
	if !ok {
		state = State{Location: Location{Path: "/"}}
	}

	if action.Type == TypeLocationChanged {
		if loc, ok := action.Payload.(Location); ok {
			state.Location = loc
		}
	}
	return state
}

// Middleware translates navigation actions into history calls. The
// resulting location change re-enters the store through the Connect
// listener; the navigation action itself is swallowed. All other
// actions pass through so downstream augmentations observe them.
func Middleware(h *History) store.Middleware {
	return func(_ *store.Store, next store.Dispatcher) store.Dispatcher {
		return func(action store.Action) {
			if action.Type == TypeNavigate {
				if nav, ok := action.Payload.(navigation); ok {
					switch nav.method {
					case "replace":
						h.Replace(nav.target)
					default:
						h.Push(nav.target)
					}
					return
				}
			}
			next(action)
		}
	}
}

// Connect mirrors history changes into the routing slice of st and
// seeds the slice with the current location. It returns an unsubscribe
// function detaching the mirror.
func Connect(h *History, st *store.Store) (unsubscribe func()) {
	unsubscribe = h.Listen(func(loc Location) {
		st.Dispatch(store.Action{Type: TypeLocationChanged, Payload: loc})
	})
	st.Dispatch(store.Action{Type: TypeLocationChanged, Payload: h.Location()})
	return unsubscribe
}
