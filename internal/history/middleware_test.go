package history

import (
	"testing"

	"github.com/cijokb/friendlypix-web-react/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoutedStore(t *testing.T) (*History, *store.Store) {
	t.Helper()

	h := New()
	st := store.New(
		store.CombineReducers(map[string]store.Reducer{SliceName: Reducer}),
		nil,
		Middleware(h),
	)
	unsubscribe := Connect(h, st)
	t.Cleanup(unsubscribe)
	return h, st
}

func routingState(t *testing.T, st *store.Store) State {
	t.Helper()

	tree, ok := st.GetState().(map[string]any)
	require.True(t, ok)
	state, ok := tree[SliceName].(State)
	require.True(t, ok)
	return state
}

func TestConnectSeedsRoutingSlice(t *testing.T) {
	_, st := newRoutedStore(t)

	assert.Equal(t, "/", routingState(t, st).Location.Path)
}

func TestNavigateActionMovesHistoryAndSlice(t *testing.T) {
	h, st := newRoutedStore(t)

	st.Dispatch(Navigate("/posts?sort=new"))

	assert.Equal(t, "/posts", h.Location().Path)
	state := routingState(t, st)
	assert.Equal(t, "/posts", state.Location.Path)
	assert.Equal(t, "new", state.Location.Query.Get("sort"))
}

func TestRedirectActionReplacesEntry(t *testing.T) {
	h, st := newRoutedStore(t)
	st.Dispatch(Navigate("/posts"))

	st.Dispatch(Redirect("/login"))

	assert.Equal(t, "/login", routingState(t, st).Location.Path)
	h.Back()
	assert.Equal(t, "/", h.Location().Path)
}

func TestDirectHistoryCallsReachSlice(t *testing.T) {
	h, st := newRoutedStore(t)

	h.Push("/direct")

	assert.Equal(t, "/direct", routingState(t, st).Location.Path)
}

func TestForeignActionsCannotWriteRoutingSlice(t *testing.T) {
	_, st := newRoutedStore(t)

	st.Dispatch(store.Action{Type: "posts/LOADED", Payload: Location{Path: "/sneaky"}})

	assert.Equal(t, "/", routingState(t, st).Location.Path)
}
