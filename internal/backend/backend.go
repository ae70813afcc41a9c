package backend

import "context"

// User is the identity reported by the backend after session resolution.
type User struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
}

// Client is the shell's handle on the identity backend.
type Client interface {
	// OnAuthStateChanged registers fn for session resolution. fn is
	// called with the signed-in user, or nil when resolution completes
	// signed out. If resolution already happened, fn runs synchronously
	// before OnAuthStateChanged returns. The returned unsubscribe is
	// safe to call more than once.
	OnAuthStateChanged(fn func(*User)) (unsubscribe func())

	// IdentityToken returns the token that identifies the current
	// session to server-side collaborators. Empty while signed out.
	IdentityToken(ctx context.Context) (string, error)

	// SignOut clears the current session and notifies listeners.
	SignOut(ctx context.Context) error

	// Close releases the client. No methods may be called afterwards.
	Close() error
}
