package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterReducer(prev any, action Action) any {
	n, _ := prev.(int)
	if action.Type == "counter/INCREMENT" {
		return n + 1
	}
	return n
}

func TestNewDispatchesInitAction(t *testing.T) {
	var seen []string
	r := func(prev any, action Action) any {
		seen = append(seen, action.Type)
		return prev
	}

	New(r, nil)

	require.Len(t, seen, 1)
	assert.Equal(t, TypeInit, seen[0])
}

func TestDispatchUpdatesState(t *testing.T) {
	s := New(counterReducer, 0)

	s.Dispatch(Action{Type: "counter/INCREMENT"})
	s.Dispatch(Action{Type: "counter/INCREMENT"})

	assert.Equal(t, 2, s.GetState())
}

func TestSubscribeNotifiesAfterEveryDispatch(t *testing.T) {
	s := New(counterReducer, 0)

	calls := 0
	s.Subscribe(func() { calls++ })

	s.Dispatch(Action{Type: "counter/INCREMENT"})
	s.Dispatch(Action{Type: "noop"})

	assert.Equal(t, 2, calls)
}

func TestUnsubscribeRemovesListener(t *testing.T) {
	s := New(counterReducer, 0)

	calls := 0
	unsubscribe := s.Subscribe(func() { calls++ })

	s.Dispatch(Action{Type: "counter/INCREMENT"})
	unsubscribe()
	s.Dispatch(Action{Type: "counter/INCREMENT"})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, s.ListenerCount())
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	s := New(counterReducer, 0)

	unsubscribe := s.Subscribe(func() {})
	other := s.Subscribe(func() {})

	unsubscribe()
	unsubscribe()

	assert.Equal(t, 1, s.ListenerCount())
	other()
}

func TestListenerMayReadStateAndDispatch(t *testing.T) {
	s := New(counterReducer, 0)

	var observed int
	s.Subscribe(func() {
		n := s.GetState().(int)
		observed = n
		// Re-dispatch once to verify listeners may re-enter the store.
		if n == 1 {
			s.Dispatch(Action{Type: "noop"})
		}
	})

	s.Dispatch(Action{Type: "counter/INCREMENT"})

	assert.Equal(t, 1, observed)
}

func TestMiddlewareOrderIsOutermostFirst(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(_ *Store, next Dispatcher) Dispatcher {
			return func(a Action) {
				order = append(order, name)
				next(a)
			}
		}
	}

	New(counterReducer, 0, tag("a"), tag("b"), tag("c"))

	require.Equal(t, []string{"a", "b", "c"}, order)
}

func TestConcurrentDispatchSerializesReduction(t *testing.T) {
	s := New(counterReducer, 0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Dispatch(Action{Type: "counter/INCREMENT"})
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.GetState())
}
