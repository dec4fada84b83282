package remote

import (
	"context"
	"net/http"
	"net/url"
)

// TokenSource hands out bearer tokens and forgets them on authorization failures
type TokenSource interface {
	// Token returns a usable access token for region, refreshing when needed
	Token(ctx context.Context, region string) (string, error)
	// Revoke drops the cached token so the next Token call refreshes
	Revoke()
}

// Doer performs authenticated catalog calls
type Doer interface {
	// Do sends one logical request to path and decodes a JSON body into out
	Do(ctx context.Context, path string, opts RequestOptions, out any) error
}

// RequestOptions tunes a single call
type RequestOptions struct {
	// Method defaults to GET
	Method string
	// Query is appended to the request URL
	Query url.Values
	// Header is merged into the request headers
	Header http.Header
	// Body is encoded as JSON when non-nil
	Body any
	// Region selects the token region, empty means the client default
	Region string
}
