// Package common contains shared constants and sentinel errors used across
// bizkeeper components.
package common

const (
	// AuthorizationHeaderName is the gRPC metadata key carrying the bearer
	// token on outbound requests.
	AuthorizationHeaderName = "authorization"

	// BearerPrefix precedes the token inside the authorization header.
	BearerPrefix = "Bearer "
)
