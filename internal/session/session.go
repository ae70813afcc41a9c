// Package session owns the auth/session slice of the state tree and
// keeps it in sync with the identity backend. The slice's IsLoaded
// flag flips false to true exactly once per shell lifetime, always
// from the backend sync, never from feature code.
package session

import (
	"github.com/cijokb/friendlypix-web-react/internal/backend"
	"github.com/cijokb/friendlypix-web-react/internal/store"
)

// SliceName is the session partition of the state tree.
const SliceName = "firebaseState"

// Action types owned by this package.
const (
	TypeLoaded    = "session/LOADED"
	TypeSignedIn  = "session/SIGNED_IN"
	TypeSignedOut = "session/SIGNED_OUT"
)

// Auth is the resolution status plus the identity it resolved to.
type Auth struct {
	IsLoaded    bool   `json:"isLoaded"`
	UID         string `json:"uid,omitempty"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
}

// State is the session slice.
type State struct {
	Auth Auth `json:"auth"`
}

// SignedIn reports whether the slice holds a resolved identity.
func (s State) SignedIn() bool {
	return s.Auth.IsLoaded && s.Auth.UID != ""
}

// Loaded builds the action the backend sync dispatches when initial
// resolution completes. user may be nil (resolved signed out).
func Loaded(user *backend.User) store.Action {
	return store.Action{Type: TypeLoaded, Payload: user}
}

// SignIn builds the action dispatched after an interactive sign-in.
// redirectTarget is the post-sign-in destination; it is honored only
// when the sync runs with redirect handling enabled.
func SignIn(user *backend.User, redirectTarget string) store.Action {
	return store.Action{Type: TypeSignedIn, Payload: signInPayload{user: user, redirect: redirectTarget}}
}

// SignOut builds the sign-out action.
func SignOut() store.Action {
	return store.Action{Type: TypeSignedOut}
}

type signInPayload struct {
	user     *backend.User
	redirect string
}

// Reducer maintains the session slice. Seeds arriving as untyped maps
// (server-rendered snapshots decoded from JSON) are converted on first
// reduction so the rest of the shell always sees a State value.
// IsLoaded never transitions back to false once set.
func Reducer(prev any, action store.Action) any {
	state := fromAny(prev)

	switch action.Type {
	case TypeLoaded:
		user, _ := action.Payload.(*backend.User)
		state.Auth = authFor(user)
	case TypeSignedIn:
		if p, ok := action.Payload.(signInPayload); ok {
			state.Auth = authFor(p.user)
		}
	case TypeSignedOut:
		state.Auth = Auth{IsLoaded: state.Auth.IsLoaded}
	}
	return state
}

func authFor(user *backend.User) Auth {
	auth := Auth{IsLoaded: true}
	if user != nil {
		auth.UID = user.UID
		auth.Email = user.Email
		auth.DisplayName = user.DisplayName
		auth.PhotoURL = user.PhotoURL
	}
	return auth
}

func fromAny(v any) State {
	switch t := v.(type) {
	case State:
		return t
	case map[string]any:
		var state State
		if auth, ok := t["auth"].(map[string]any); ok {
			state.Auth.IsLoaded, _ = auth["isLoaded"].(bool)
			state.Auth.UID, _ = auth["uid"].(string)
			state.Auth.Email, _ = auth["email"].(string)
			state.Auth.DisplayName, _ = auth["displayName"].(string)
			state.Auth.PhotoURL, _ = auth["photoURL"].(string)
		}
		return state
	}
	return State{}
}
