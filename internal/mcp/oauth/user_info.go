package oauth

import (
	"context"

	mcpoauth "github.com/giantswarm/mcp-oauth"
	"github.com/giantswarm/mcp-oauth/providers"
)

// UserInfo is the identity the provider reported for a validated token.
type UserInfo = providers.UserInfo

// UserInfoFromContext returns the caller set by the token validation
// middleware.
func UserInfoFromContext(ctx context.Context) (*UserInfo, bool) {
	user, ok := mcpoauth.UserInfoFromContext(ctx)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}

// GetUserEmailFromContext returns the caller's email, or "" for
// unauthenticated transports.
func GetUserEmailFromContext(ctx context.Context) string {
	if user, ok := UserInfoFromContext(ctx); ok {
		return user.Email
	}
	return ""
}
