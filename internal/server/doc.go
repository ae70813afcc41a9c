// Package server is the HTTP surface of the shell: it serves the page
// that carries the mount point and the serialized state snapshot,
// authenticates __session cookies against the session record store,
// streams state snapshots over WebSocket, and exposes health and
// metrics endpoints. It also plays the bootstrap collaborator roles:
// cookie writer and root-view renderer.
package server
