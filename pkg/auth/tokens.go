package auth

import "context"

// TokenIssuer abstracts token creation (e.g., JWT).
type TokenIssuer interface {
	Issue(ctx context.Context, actor Actor) (string, error)
}

// TokenVerifier resolves a token back to the calling actor.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}
