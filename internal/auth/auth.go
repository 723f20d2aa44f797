// Package auth signs users in through an external identity provider and
// keeps them signed in with stateless session tokens.
//
// The login flow is: redirect to the provider with a random state stored in
// a short-lived cookie, check the state on callback, exchange the code for
// an Identity, then issue a session token. Session tokens travel as an
// HttpOnly cookie for browsers or as a Bearer token for API clients.
package auth

import (
	"context"
	"errors"
)

var (
	// ErrNotAuthenticated is returned when a request carries no session.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrInvalidSession is returned for expired, malformed or forged tokens.
	ErrInvalidSession = errors.New("invalid session")

	// ErrInvalidState is returned when the OAuth callback state does not
	// match the one issued at login.
	ErrInvalidState = errors.New("invalid oauth state")
)

// Identity is what an identity provider asserts about the signed-in user.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

// Provider is an OAuth2 identity provider.
type Provider interface {
	// AuthCodeURL returns the provider URL the browser is sent to.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for the user's identity.
	Exchange(ctx context.Context, code string) (Identity, error)
}
