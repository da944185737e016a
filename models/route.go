package models

import "net/http"

// Routes Holder of all routes
type Routes []Route

// Route Describe route
type Route struct {
	Path        string
	Method      string
	HandlerFunc http.HandlerFunc
	// AllowUnauthenticatedUsers skips the bearer token requirement, for
	// callers authenticated by other means (orchestrator callbacks, signed
	// webhooks).
	AllowUnauthenticatedUsers bool
}
