// Package common contains constants and small helpers shared by the
// bookshelf client packages.
package common

// HTTP header names and values used on outbound requests.
const (
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "
	RequestIDHeader     = "X-Request-ID"
)
