// Package observability builds the zap loggers used across the portal
// and scopes them to the request being served.
package observability
