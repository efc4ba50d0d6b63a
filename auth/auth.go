// Package auth provides bearer token authentication for the catalog browser
// Flight service.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
)

var (
	// ErrInvalidAuthHeader is returned when the authorization header is malformed.
	ErrInvalidAuthHeader = errors.New("authorization header must use Bearer scheme")

	// ErrTokenIsEmpty is returned when the bearer token is empty.
	ErrTokenIsEmpty = errors.New("authorization token is empty")

	// ErrUnauthenticated is returned when authentication fails.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Authenticator validates bearer tokens and returns user identity.
// Implementations MUST be goroutine-safe.
type Authenticator interface {
	// Authenticate validates a bearer token and returns the caller's identity.
	Authenticate(ctx context.Context, token string) (identity string, err error)
}

type noAuthenticator struct{}

// NoAuth returns an Authenticator that allows all requests.
// Useful for development/testing. DO NOT use in production.
func NoAuth() Authenticator {
	return &noAuthenticator{}
}

func (n *noAuthenticator) Authenticate(ctx context.Context, token string) (string, error) {
	return "anonymous", nil
}

// bearerAuthenticator wraps a user-provided validation function.
type bearerAuthenticator struct {
	validateFunc func(token string) (identity string, err error)
}

// BearerAuth creates an Authenticator from a validation function.
//
// Example:
//
//	auth := BearerAuth(func(token string) (string, error) {
//	    user, err := validateWithMyBackend(token)
//	    if err != nil {
//	        return "", err
//	    }
//	    return user.ID, nil
//	})
func BearerAuth(validateFunc func(token string) (identity string, err error)) Authenticator {
	return &bearerAuthenticator{validateFunc: validateFunc}
}

func (b *bearerAuthenticator) Authenticate(ctx context.Context, token string) (string, error) {
	return b.validateFunc(token)
}

// StaticTokens returns an Authenticator accepting a fixed set of tokens,
// mapped to the identities they authenticate.
func StaticTokens(tokens map[string]string) Authenticator {
	known := make(map[string]string, len(tokens))
	for token, identity := range tokens {
		if token != "" {
			known[token] = identity
		}
	}
	return BearerAuth(func(token string) (string, error) {
		for candidate, identity := range known {
			if subtle.ConstantTimeCompare([]byte(candidate), []byte(token)) == 1 {
				return identity, nil
			}
		}
		return "", ErrUnauthenticated
	})
}

type contextKey int

const (
	identityKey contextKey = iota
)

// IdentityFromContext retrieves the authenticated user identity from context.
// Returns empty string if no identity is set (unauthenticated request).
func IdentityFromContext(ctx context.Context) string {
	val, ok := ctx.Value(identityKey).(string)
	if !ok {
		return ""
	}
	return val
}

// WithIdentity adds the authenticated user identity to the context.
func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

const bearerPrefix = "Bearer "

// TokenFromAuthorizationHeader extracts the token of a "Bearer <token>" header.
func TokenFromAuthorizationHeader(authHeader string) (string, error) {
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthHeader
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", ErrTokenIsEmpty
	}
	return token, nil
}

// ValidateToken validates a bearer token using the provided Authenticator.
// Returns context with identity set or error.
func ValidateToken(ctx context.Context, token string, authenticator Authenticator) (context.Context, error) {
	if token == "" {
		return ctx, ErrTokenIsEmpty
	}

	identity, err := authenticator.Authenticate(ctx, token)
	if err != nil {
		return ctx, ErrUnauthenticated
	}

	return WithIdentity(ctx, identity), nil
}
