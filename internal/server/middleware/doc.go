// Package middleware provides HTTP middleware for the SSE and streamable
// HTTP transports: security headers, CORS, request size limits, request IDs
// and HTTP metrics.
package middleware
