package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/adionit7/devstarter/pkg/token"
)

// TokenValidator is the slice of the token service the guard needs.
type TokenValidator interface {
	Validate(raw string) (token.Claims, error)
}

// Guard authenticates inbound requests. It validates the bearer token
// and resolves it to a live account on every call; there is no caching,
// so deactivation takes effect on the account's very next request even
// while previously issued tokens are still unexpired.
type Guard struct {
	tokens  TokenValidator
	storage AccountStorage
}

func NewGuard(tokens TokenValidator, storage AccountStorage) *Guard {
	return &Guard{
		tokens:  tokens,
		storage: storage,
	}
}

// Authenticate resolves a raw Authorization header to an account.
// Every failure mode collapses to ErrUnauthenticated; the wrapped cause
// is for logs only and must not reach the client.
func (g *Guard) Authenticate(ctx context.Context, authorizationHeader string) (*Account, error) {
	raw, ok := bearerToken(authorizationHeader)
	if !ok {
		return nil, fmt.Errorf("%w: missing or malformed authorization header", ErrUnauthenticated)
	}

	claims, err := g.tokens.Validate(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	account, err := g.storage.GetAccountByID(ctx, claims.AccountID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	if !account.IsActive {
		return nil, fmt.Errorf("%w: account is deactivated", ErrUnauthenticated)
	}

	return account, nil
}

// bearerToken extracts the token from an "Authorization: Bearer <t>" header.
func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return header[len(prefix):], true
}
