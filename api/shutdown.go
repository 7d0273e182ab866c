// File: api/shutdown.go
// Package api defines unified graceful shutdown contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// GracefulShutdown unifies orderly teardown of components.
type GracefulShutdown interface {
	// Shutdown stops every internal service and releases resources.
	// It returns an error on failure.
	Shutdown() error
}
