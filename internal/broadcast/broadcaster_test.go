package broadcast

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cijokb/friendlypix-web-react/internal/store"
)

func counterReducer(prev any, action store.Action) any {
	n, _ := prev.(float64)
	if action.Type == "counter/INCREMENT" {
		return n + 1
	}
	return n
}

// testBroadcaster sets up a Broadcaster with a test HTTP server and
// returns a dialer for client connections.
func testBroadcaster(t *testing.T, maxClients int) (*store.Store, *Broadcaster, func(pageUUID uuid.UUID) *ws.Conn) {
	t.Helper()

	st := store.New(store.CombineReducers(map[string]store.Reducer{"counter": counterReducer}), nil)
	broadcaster := NewBroadcaster(st, clockwork.NewRealClock(), maxClients)
	t.Cleanup(broadcaster.Stop)

	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		pageUUID := uuid.MustParse(r.URL.Query().Get("page"))
		_ = broadcaster.Register(pageUUID, conn)
	}))
	t.Cleanup(server.Close)

	dial := func(pageUUID uuid.UUID) *ws.Conn {
		url := "ws" + strings.TrimPrefix(server.URL, "http") + "?page=" + pageUUID.String()
		conn, _, err := ws.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = conn.Close() })
		return conn
	}

	return st, broadcaster, dial
}

func readSnapshot(t *testing.T, conn *ws.Conn) map[string]any {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var snapshot map[string]any
	require.NoError(t, json.Unmarshal(data, &snapshot))
	return snapshot
}

func TestNewClientReceivesCurrentSnapshot(t *testing.T) {
	st, _, dial := testBroadcaster(t, 10)
	st.Dispatch(store.Action{Type: "counter/INCREMENT"})

	conn := dial(uuid.New())

	snapshot := readSnapshot(t, conn)
	assert.Equal(t, float64(1), snapshot["counter"])
}

func TestDispatchPushesSnapshotToClients(t *testing.T) {
	st, _, dial := testBroadcaster(t, 10)
	conn := dial(uuid.New())
	readSnapshot(t, conn) // initial snapshot

	st.Dispatch(store.Action{Type: "counter/INCREMENT"})

	// A dispatch may coalesce with the initial push; read until the
	// counter moves.
	deadline := time.Now().Add(2 * time.Second)
	for {
		snapshot := readSnapshot(t, conn)
		if snapshot["counter"] == float64(1) {
			return
		}
		require.True(t, time.Now().Before(deadline), "never saw updated snapshot")
	}
}

func TestRegisterEnforcesClientLimit(t *testing.T) {
	_, broadcaster, dial := testBroadcaster(t, 1)

	pageUUID := uuid.New()
	first := dial(pageUUID)
	readSnapshot(t, first)

	second := dial(pageUUID)

	// The server closes the second connection during registration.
	require.NoError(t, second.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := second.ReadMessage()
	assert.Error(t, err)

	assert.Eventually(t, func() bool {
		return broadcaster.GetClientCount(pageUUID) == 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestGetClientCount(t *testing.T) {
	_, broadcaster, dial := testBroadcaster(t, 10)

	pageUUID := uuid.New()
	assert.Equal(t, 0, broadcaster.GetClientCount(pageUUID))

	conn := dial(pageUUID)
	readSnapshot(t, conn)

	assert.Eventually(t, func() bool {
		return broadcaster.GetClientCount(pageUUID) == 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestUnregisterRemovesClient(t *testing.T) {
	_, broadcaster, dial := testBroadcaster(t, 10)

	pageUUID := uuid.New()
	conn := dial(pageUUID)
	readSnapshot(t, conn)

	require.Eventually(t, func() bool {
		return broadcaster.GetClientCount(pageUUID) == 1
	}, 2*time.Second, 20*time.Millisecond)

	// The server side holds its own *websocket.Conn; closing the
	// client side is detected by the writer's ping failures, so here
	// we drive unregistration through Stop instead.
	broadcaster.Stop()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func TestStopClosesClients(t *testing.T) {
	st := store.New(store.CombineReducers(map[string]store.Reducer{"counter": counterReducer}), nil)
	broadcaster := NewBroadcaster(st, clockwork.NewRealClock(), 10)

	broadcaster.Stop()

	// Store subscription is detached; dispatching after Stop must not
	// panic or block.
	st.Dispatch(store.Action{Type: "counter/INCREMENT"})
	assert.Equal(t, 0, st.ListenerCount())
}
