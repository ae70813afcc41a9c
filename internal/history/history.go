// Package history tracks the current navigable location (path and
// query) and mirrors it into the store's routing slice. The history
// manager is the sole writer of that slice.
package history

import (
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Location is the current navigation position.
type Location struct {
	Path  string
	Query url.Values
}

// ParseLocation splits a target like "/posts?sort=new" into a Location.
// A missing or malformed query yields an empty Query.
func ParseLocation(target string) Location {
	path, rawQuery, _ := strings.Cut(target, "?")
	if path == "" {
		path = "/"
	}
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		query = url.Values{}
	}
	return Location{Path: path, Query: query}
}

// History manages the navigation stack for one shell instance.
type History struct {
	mu        sync.Mutex
	entries   []Location
	index     int
	listeners map[uuid.UUID]func(Location)
}

// New creates a history positioned at the root path.
func New() *History {
	return &History{
		entries:   []Location{{Path: "/", Query: url.Values{}}},
		listeners: make(map[uuid.UUID]func(Location)),
	}
}

// Location returns the current position.
func (h *History) Location() Location {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.index]
}

// Push navigates to target, appending a new entry and truncating any
// forward entries.
func (h *History) Push(target string) {
	loc := ParseLocation(target)

	h.mu.Lock()
	h.entries = append(h.entries[:h.index+1], loc)
	h.index = len(h.entries) - 1
	fns := h.snapshotListeners()
	h.mu.Unlock()

	notify(fns, loc)
}

// Replace swaps the current entry for target without growing the stack.
func (h *History) Replace(target string) {
	loc := ParseLocation(target)

	h.mu.Lock()
	h.entries[h.index] = loc
	fns := h.snapshotListeners()
	h.mu.Unlock()

	notify(fns, loc)
}

// Back moves one entry backwards. At the oldest entry it is a no-op.
func (h *History) Back() {
	h.mu.Lock()
	if h.index == 0 {
		h.mu.Unlock()
		return
	}
	h.index--
	loc := h.entries[h.index]
	fns := h.snapshotListeners()
	h.mu.Unlock()

	notify(fns, loc)
}

// Listen registers fn for every navigation. It returns an unsubscribe
// function that is safe to call more than once.
func (h *History) Listen(fn func(Location)) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := uuid.New()
	h.listeners[id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.listeners, id)
	}
}

func (h *History) snapshotListeners() []func(Location) {
	fns := make([]func(Location), 0, len(h.listeners))
	for _, fn := range h.listeners {
		fns = append(fns, fn)
	}
	return fns
}

func notify(fns []func(Location), loc Location) {
	for _, fn := range fns {
		fn(loc)
	}
}
