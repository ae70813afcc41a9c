package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombineReducersCreatesOneSlicePerReducer(t *testing.T) {
	r := CombineReducers(map[string]Reducer{
		"posts":    counterReducer,
		"comments": counterReducer,
	})

	s := New(r, nil)

	tree, ok := s.GetState().(map[string]any)
	require.True(t, ok)
	assert.Len(t, tree, 2)
	assert.Contains(t, tree, "posts")
	assert.Contains(t, tree, "comments")
}

func TestCombineReducersRoutesActionsToEverySlice(t *testing.T) {
	r := CombineReducers(map[string]Reducer{
		"a": counterReducer,
		"b": counterReducer,
	})
	s := New(r, nil)

	s.Dispatch(Action{Type: "counter/INCREMENT"})

	tree := s.GetState().(map[string]any)
	assert.Equal(t, 1, tree["a"])
	assert.Equal(t, 1, tree["b"])
}

func TestCombineReducersSeedsSlicesFromSnapshot(t *testing.T) {
	r := CombineReducers(map[string]Reducer{"counter": counterReducer})

	seed := map[string]any{"counter": 41}
	s := New(r, seed)
	s.Dispatch(Action{Type: "counter/INCREMENT"})

	tree := s.GetState().(map[string]any)
	assert.Equal(t, 42, tree["counter"])
}

func TestCombineReducersPreservesUnclaimedSeedKeys(t *testing.T) {
	r := CombineReducers(map[string]Reducer{"counter": counterReducer})

	seed := map[string]any{
		"counter":  0,
		"rendered": map[string]any{"title": "hello"},
	}
	s := New(r, seed)
	s.Dispatch(Action{Type: "counter/INCREMENT"})

	tree := s.GetState().(map[string]any)
	assert.Equal(t, map[string]any{"title": "hello"}, tree["rendered"])
}

func TestCombineReducersAcceptsNonMapSeed(t *testing.T) {
	// Malformed seeds are accepted as-is; reducers start from zero state.
	r := CombineReducers(map[string]Reducer{"counter": counterReducer})

	s := New(r, "not a tree")

	tree, ok := s.GetState().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 0, tree["counter"])
}
