package service

import (
	"context"
	"time"

	"github.com/wrenauth/wren/internal/auth/domain"
)

// TicketStore resolves opaque codes/tokens to tickets and serializes freshly
// minted refresh tickets back to opaque strings. Implementations own the
// persistence format; the pipeline only sees tickets.
//
// Deserialize methods return (nil, nil) or an error when the opaque string
// does not resolve; the pipeline maps both outcomes to the same terminal
// invalid_grant response and never retries.
type TicketStore interface {
	DeserializeAuthorizationCode(ctx context.Context, code string) (*domain.Ticket, error)
	DeserializeRefreshToken(ctx context.Context, token string) (*domain.Ticket, error)
	SerializeRefreshToken(ctx context.Context, t *domain.Ticket) (string, error)
}

// RefreshTokenRevoker is optionally implemented by TicketStore backends that
// support refresh-token rotation: when a refresh grant issues a replacement
// token, the presented one is revoked.
type RefreshTokenRevoker interface {
	RevokeRefreshToken(ctx context.Context, token string) error
}

// ClientAuthenticator resolves request-supplied credentials (client_secret
// parameter or Basic authorization header) to a verified client identity.
// It returns "" when the credentials do not verify, and a non-nil error only
// for infrastructure failures. It is invoked only when the request actually
// carries credentials.
type ClientAuthenticator interface {
	AuthenticateClient(ctx context.Context, req *domain.TokenRequest) (string, error)
}

// TokenIssuer mints the opaque access-token string for a confirmed grant.
type TokenIssuer interface {
	IssueToken(ctx context.Context, t *domain.Ticket) (string, error)
}

// Clock supplies the current UTC instant; injectable for deterministic
// expiry tests.
type Clock func() time.Time
