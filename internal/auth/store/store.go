package store

import (
	"context"
	"errors"
	"time"

	"github.com/wrenauth/wren/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface implemented by concrete drivers.
// It exposes sub-repositories to keep concerns tidy and testable.
type Store interface {
	Tickets() Tickets
	Clients() Clients
	Users() Users

	ApplyMigrations() error

	// Ping verifies the backing database is still reachable.
	Ping(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}

// Tickets serializes and resolves opaque security tickets. The stored row is
// keyed by a SHA-256 fingerprint of the opaque string; raw codes and tokens
// are never persisted.
//
// The method set satisfies the pipeline's TicketStore and
// RefreshTokenRevoker collaborator interfaces.
type Tickets interface {
	// SerializeAuthorizationCode persists t as a single-use authorization
	// code and returns the opaque code string.
	SerializeAuthorizationCode(ctx context.Context, t *domain.Ticket) (string, error)

	// DeserializeAuthorizationCode resolves and consumes an authorization
	// code. A code resolves exactly once; unknown or already-used codes
	// return ErrNotFound. Expiry is NOT checked here: the pipeline owns the
	// expiry decision and its error message.
	DeserializeAuthorizationCode(ctx context.Context, code string) (*domain.Ticket, error)

	// SerializeRefreshToken persists t as a refresh ticket and returns the
	// opaque token string.
	SerializeRefreshToken(ctx context.Context, t *domain.Ticket) (string, error)

	// DeserializeRefreshToken resolves a refresh token. Revoked or unknown
	// tokens return ErrNotFound; expiry is left to the pipeline.
	DeserializeRefreshToken(ctx context.Context, token string) (*domain.Ticket, error)

	// RevokeRefreshToken marks the token's stored ticket revoked. Revoking
	// an unknown token is not an error.
	RevokeRefreshToken(ctx context.Context, token string) error

	// PurgeExpired removes consumed codes and tickets whose expiry passed
	// before the given cutoff, returning the number of rows removed.
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type Clients interface {
	GetClientByID(ctx context.Context, id string) (domain.Client, error)
	CreateClient(ctx context.Context, c domain.Client) error
}

type Users interface {
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	CreateUser(ctx context.Context, u domain.User) error
}
