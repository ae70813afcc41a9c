// Package backend abstracts the hosted identity service. The shell
// talks to a Client; the Firebase implementation is the only concrete
// one. Authentication and persistence protocols belong to the hosted
// service, not to this repository.
package backend
