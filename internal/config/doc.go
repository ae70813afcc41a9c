// Package config loads the server shell configuration from the
// environment and validates required settings at startup.
package config
