package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cijokb/friendlypix-web-react/internal/backend"
	"github.com/cijokb/friendlypix-web-react/internal/crypto"
)

func newTestStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	sealer, err := crypto.NewAESGCMSealer("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	require.NoError(t, err)

	return NewSessionStore(rdb, clockwork.NewFakeClock(), sealer, time.Hour), mr
}

func TestSaveAndAuthenticate(t *testing.T) {
	store, _ := newTestStore(t)
	user := &backend.User{UID: "u1", Email: "u1@example.com", DisplayName: "User One"}

	require.NoError(t, store.Save(context.Background(), "token-1", user))

	got, err := store.Authenticate(context.Background(), "token-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UID)
	assert.Equal(t, "u1@example.com", got.Email)
	assert.Equal(t, "User One", got.DisplayName)
}

func TestAuthenticateUnknownToken(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Authenticate(context.Background(), "never-saved")

	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRevokeDeletesRecord(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Save(context.Background(), "token-1", &backend.User{UID: "u1"}))

	require.NoError(t, store.Revoke(context.Background(), "token-1"))

	_, err := store.Authenticate(context.Background(), "token-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRevokeUnknownTokenIsNoError(t *testing.T) {
	store, _ := newTestStore(t)

	assert.NoError(t, store.Revoke(context.Background(), "never-saved"))
}

func TestRecordsExpire(t *testing.T) {
	store, mr := newTestStore(t)
	require.NoError(t, store.Save(context.Background(), "token-1", &backend.User{UID: "u1"}))

	mr.FastForward(2 * time.Hour)

	_, err := store.Authenticate(context.Background(), "token-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestTokenIsNotStoredInTheClear(t *testing.T) {
	store, mr := newTestStore(t)
	require.NoError(t, store.Save(context.Background(), "token-1", &backend.User{UID: "u1"}))

	for _, key := range mr.Keys() {
		sealed := mr.HGet(key, fieldTokenSealed)
		assert.NotEqual(t, "token-1", sealed)
		assert.NotContains(t, key, "token-1")
	}
}
