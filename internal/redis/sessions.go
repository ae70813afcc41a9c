package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/cijokb/friendlypix-web-react/internal/backend"
	"github.com/cijokb/friendlypix-web-react/internal/crypto"
	"github.com/cijokb/friendlypix-web-react/internal/metrics"
)

// ErrSessionNotFound is returned when no record exists for a token.
var ErrSessionNotFound = errors.New("session record not found")

const (
	// Redis hash field names for session record keys.
	fieldUID         = "uid"
	fieldEmail       = "email"
	fieldDisplayName = "display_name"
	fieldTokenSealed = "token_sealed"
	fieldCreatedAt   = "created_at"
)

// SessionStore persists session records keyed by a hash of the token,
// never the token itself. Tokens inside records are sealed at rest.
type SessionStore struct {
	rdb    *goredis.Client
	clock  clockwork.Clock
	sealer crypto.Sealer
	ttl    time.Duration
}

// NewSessionStore creates the store. Records expire after ttl.
func NewSessionStore(rdb *goredis.Client, clock clockwork.Clock, sealer crypto.Sealer, ttl time.Duration) *SessionStore {
	return &SessionStore{rdb: rdb, clock: clock, sealer: sealer, ttl: ttl}
}

// Save writes the record for token, replacing any previous one.
func (s *SessionStore) Save(ctx context.Context, token string, user *backend.User) error {
	sealed, err := s.sealer.Seal(token)
	if err != nil {
		return fmt.Errorf("failed to seal session token: %w", err)
	}

	key := sessionKey(token)
	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, key, map[string]any{
		fieldUID:         user.UID,
		fieldEmail:       user.Email,
		fieldDisplayName: user.DisplayName,
		fieldTokenSealed: sealed,
		fieldCreatedAt:   strconv.FormatInt(s.clock.Now().Unix(), 10),
	})
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		metrics.SessionRecordOpsTotal.WithLabelValues("save", "error").Inc()
		return fmt.Errorf("failed to save session record: %w", err)
	}

	metrics.SessionRecordOpsTotal.WithLabelValues("save", "ok").Inc()
	return nil
}

// Authenticate resolves token to the identity it was minted for.
func (s *SessionStore) Authenticate(ctx context.Context, token string) (*backend.User, error) {
	fields, err := s.rdb.HGetAll(ctx, sessionKey(token)).Result()
	if err != nil {
		metrics.SessionRecordOpsTotal.WithLabelValues("authenticate", "error").Inc()
		return nil, fmt.Errorf("failed to read session record: %w", err)
	}
	if len(fields) == 0 {
		metrics.SessionRecordOpsTotal.WithLabelValues("authenticate", "miss").Inc()
		return nil, ErrSessionNotFound
	}

	// The sealed token must open and match, otherwise the record was
	// written for a colliding key or tampered with.
	original, err := s.sealer.Open(fields[fieldTokenSealed])
	if err != nil || original != token {
		metrics.SessionRecordOpsTotal.WithLabelValues("authenticate", "miss").Inc()
		return nil, ErrSessionNotFound
	}

	metrics.SessionRecordOpsTotal.WithLabelValues("authenticate", "ok").Inc()
	return &backend.User{
		UID:         fields[fieldUID],
		Email:       fields[fieldEmail],
		DisplayName: fields[fieldDisplayName],
	}, nil
}

// Revoke deletes the record for token. Revoking an unknown token is
// not an error.
func (s *SessionStore) Revoke(ctx context.Context, token string) error {
	if err := s.rdb.Del(ctx, sessionKey(token)).Err(); err != nil {
		metrics.SessionRecordOpsTotal.WithLabelValues("revoke", "error").Inc()
		return fmt.Errorf("failed to revoke session record: %w", err)
	}
	metrics.SessionRecordOpsTotal.WithLabelValues("revoke", "ok").Inc()
	return nil
}

func sessionKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "shellsess:" + hex.EncodeToString(sum[:])
}
