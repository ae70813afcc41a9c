package backend

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"
	"google.golang.org/api/option"
)

const (
	defaultSessionTTL = 5 * 24 * time.Hour

	breakerFailureThreshold = 5
	breakerOpenDuration     = 30 * time.Second
)

// FirebaseClient implements Client against the Firebase Auth service.
// At most one instance exists per shell; NewFirebaseClient is called
// only from the bootstrap sequence.
type FirebaseClient struct {
	app        *firebase.App
	auth       *firebaseauth.Client
	breaker    *gobreaker.CircuitBreaker
	group      singleflight.Group
	sessionTTL time.Duration

	mu        sync.Mutex
	resolved  bool
	user      *User
	token     string
	listeners map[uuid.UUID]func(*User)
}

// NewFirebaseClient initializes the Firebase app and auth client from
// the artifact config. Verification calls run behind a circuit breaker
// so a degraded auth service cannot pile up blocked requests.
func NewFirebaseClient(ctx context.Context, cfg Config) (*FirebaseClient, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if len(cfg.CredentialsJSON) > 0 {
		opts = append(opts, option.WithCredentialsJSON(cfg.CredentialsJSON))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:        cfg.ProjectID,
		DatabaseURL:      cfg.DatabaseURL,
		StorageBucket:    cfg.StorageBucket,
		ServiceAccountID: cfg.ServiceAccountID,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase auth: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "firebase-auth",
		Timeout: breakerOpenDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Auth circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &FirebaseClient{
		app:        app,
		auth:       authClient,
		breaker:    breaker,
		sessionTTL: defaultSessionTTL,
		listeners:  make(map[uuid.UUID]func(*User)),
	}, nil
}

// Resolve completes the initial session resolution. A non-empty
// idToken is verified and exchanged for a session token; verification
// failure resolves signed out rather than erroring, because listeners
// must always learn the outcome. Concurrent calls collapse to one
// verification.
func (c *FirebaseClient) Resolve(ctx context.Context, idToken string) error {
	_, err, _ := c.group.Do("resolve", func() (any, error) {
		if idToken == "" {
			c.complete(nil, "")
			return nil, nil
		}

		tok, err := c.verify(ctx, idToken)
		if err != nil {
			slog.Warn("Session resolution failed, continuing signed out", "error", err)
			c.complete(nil, "")
			return nil, nil
		}

		sessionToken, err := c.auth.SessionCookie(ctx, idToken, c.sessionTTL)
		if err != nil {
			slog.Warn("Session token mint failed, continuing signed out", "error", err)
			c.complete(nil, "")
			return nil, nil
		}

		c.complete(userFromToken(tok), sessionToken)
		return nil, nil
	})
	return err
}

// VerifySessionToken checks a session token minted by Resolve. Used by
// server-side collaborators authenticating rendered requests.
func (c *FirebaseClient) VerifySessionToken(ctx context.Context, sessionToken string) (*User, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		return c.auth.VerifySessionCookie(ctx, sessionToken)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify session token: %w", err)
	}
	return userFromToken(result.(*firebaseauth.Token)), nil
}

// OnAuthStateChanged implements Client.
func (c *FirebaseClient) OnAuthStateChanged(fn func(*User)) (unsubscribe func()) {
	c.mu.Lock()
	if c.resolved {
		user := c.user
		c.mu.Unlock()
		fn(user)
		c.mu.Lock()
	}

	id := uuid.New()
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// IdentityToken implements Client.
func (c *FirebaseClient) IdentityToken(_ context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, nil
}

// SignOut implements Client.
func (c *FirebaseClient) SignOut(_ context.Context) error {
	c.complete(nil, "")
	return nil
}

// Close implements Client.
func (c *FirebaseClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = make(map[uuid.UUID]func(*User))
	return nil
}

func (c *FirebaseClient) verify(ctx context.Context, idToken string) (*firebaseauth.Token, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		return c.auth.VerifyIDToken(ctx, idToken)
	})
	if err != nil {
		return nil, err
	}
	return result.(*firebaseauth.Token), nil
}

func (c *FirebaseClient) complete(user *User, token string) {
	c.mu.Lock()
	c.resolved = true
	c.user = user
	c.token = token
	fns := make([]func(*User), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(user)
	}
}

func userFromToken(tok *firebaseauth.Token) *User {
	user := &User{UID: tok.UID}
	if email, ok := tok.Claims["email"].(string); ok {
		user.Email = email
	}
	if name, ok := tok.Claims["name"].(string); ok {
		user.DisplayName = name
	}
	if picture, ok := tok.Claims["picture"].(string); ok {
		user.PhotoURL = picture
	}
	return user
}
