package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThunkMiddlewareExecutesThunks(t *testing.T) {
	s := New(counterReducer, 0, ThunkMiddleware(nil))

	s.Dispatch(Thunk(func(dispatch Dispatcher, getState func() any, _ any) {
		if getState().(int) == 0 {
			dispatch(Action{Type: "counter/INCREMENT"})
		}
	}))

	assert.Equal(t, 1, s.GetState())
}

func TestThunkMiddlewarePassesBackendAccessorResult(t *testing.T) {
	type fakeBackend struct{ name string }
	want := &fakeBackend{name: "identity"}

	s := New(counterReducer, 0, ThunkMiddleware(func() any { return want }))

	var got any
	s.Dispatch(Thunk(func(_ Dispatcher, _ func() any, backend any) {
		got = backend
	}))

	require.Same(t, want, got)
}

func TestThunkMiddlewareForwardsPlainActions(t *testing.T) {
	s := New(counterReducer, 0, ThunkMiddleware(nil))

	s.Dispatch(Action{Type: "counter/INCREMENT"})

	assert.Equal(t, 1, s.GetState())
}

func TestThunkActionIsNotReduced(t *testing.T) {
	var types []string
	r := func(prev any, action Action) any {
		types = append(types, action.Type)
		return prev
	}

	s := New(r, nil, ThunkMiddleware(nil))
	s.Dispatch(Thunk(func(_ Dispatcher, _ func() any, _ any) {}))

	assert.NotContains(t, types, TypeThunk)
}
