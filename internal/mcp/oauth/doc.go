// Package oauth adapts the github.com/giantswarm/mcp-oauth library to the
// mcp-apstra HTTP transports.
//
// OAuth only guards who may call the MCP endpoint. Apstra itself is always
// reached with the static API token; caller tokens are never forwarded.
//
// # Handler
//
// [NewHandler] builds the OAuth 2.1 authorization server for the configured
// identity provider (Dex or Google) on top of an in-memory store. The
// library handler it wraps serves the metadata, registration, authorization
// and token endpoints and validates bearer tokens on MCP requests.
//
// # User Info
//
// The validated caller is available on the request context:
//
//   - [UserInfoFromContext]: the full UserInfo
//   - [GetUserEmailFromContext]: just the email, used in the audit trail
//
// # Dependency Security Note
//
// The library provides PKCE enforcement, refresh token rotation, rate
// limiting and audit logging for the authorization server.
package oauth
