// Package redis holds the Redis-backed session record store. A record
// maps a session token (carried by the __session cookie) to the
// identity it was minted for, letting server-rendered requests
// authenticate without a round trip to the identity backend.
package redis
