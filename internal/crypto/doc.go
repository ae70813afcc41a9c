// Package crypto seals identity tokens before they are written to the
// session record store, so tokens never sit in Redis in the clear.
package crypto
