// Package store implements the centralized application state container.
// All state lives in a single tree partitioned into named slices, each
// owned by one reducer. State is replaced, never mutated in place, and
// every update flows through Dispatch.
package store
