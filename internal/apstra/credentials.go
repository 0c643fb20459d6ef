package apstra

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"github.com/giantswarm/mcp-apstra/internal/logging"
)

// Credentials holds the Apstra controller base URL and API token.
// It is created once at startup and never mutated afterwards, so it can be
// shared between concurrent tool invocations without locking.
type Credentials struct {
	baseURL *url.URL
	token   string
}

// NewCredentials validates and stores the controller base URL and API token.
// Trailing slashes are trimmed from the base URL. Both values are required and
// the URL must be an absolute http(s) URL with a host.
func NewCredentials(baseURL, token string) (*Credentials, error) {
	baseURL = strings.TrimSpace(baseURL)
	token = strings.TrimSpace(token)

	if baseURL == "" {
		return nil, fmt.Errorf("%w: base URL is required", ErrInvalidConfiguration)
	}
	if token == "" {
		return nil, fmt.Errorf("%w: API token is required", ErrInvalidConfiguration)
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: base URL is not a valid URL: %v", ErrInvalidConfiguration, err)
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return nil, fmt.Errorf("%w: base URL %q must be absolute (e.g. https://apstra.example.com)",
			ErrInvalidConfiguration, logging.SanitizeHost(baseURL))
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return nil, fmt.Errorf("%w: base URL must use http or https (got: %s)", ErrInvalidConfiguration, parsed.Scheme)
	}
	if parsed.RawQuery != "" || parsed.Fragment != "" {
		return nil, fmt.Errorf("%w: base URL must not contain a query or fragment", ErrInvalidConfiguration)
	}

	parsed.Path = strings.TrimRight(parsed.Path, "/")
	parsed.RawPath = ""

	return &Credentials{
		baseURL: parsed,
		token:   token,
	}, nil
}

// BaseURL returns the controller base URL without a trailing slash.
func (c *Credentials) BaseURL() string {
	return c.baseURL.String()
}

// AuthHeader returns the value of the Authorization header sent upstream.
func (c *Credentials) AuthHeader() string {
	return "Bearer " + c.token
}

// TokenSource returns a static OAuth2 token source for the API token.
// It is used by oauth2.Transport to attach the Authorization header.
func (c *Credentials) TokenSource() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: c.token,
		TokenType:   "Bearer",
	})
}

// String implements fmt.Stringer without revealing the token.
func (c *Credentials) String() string {
	return fmt.Sprintf("apstra(%s, token=%s)", logging.SanitizeHost(c.BaseURL()), logging.SanitizeToken(c.token))
}

// resolve builds the absolute request URL for an API path. The path has
// already been escaped by Path.
func (c *Credentials) resolve(path string, query url.Values) string {
	u := *c.baseURL
	escaped := c.baseURL.EscapedPath() + path
	if unescaped, err := url.PathUnescape(escaped); err == nil {
		u.Path = unescaped
		u.RawPath = escaped
	} else {
		u.Path = escaped
		u.RawPath = ""
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}
