package app

import (
	"context"
	"time"

	"github.com/wrenauth/wren/internal/auth/domain"
	"github.com/wrenauth/wren/pkg/jwtx"
)

// jwtIssuer mints signed JWT access tokens from confirmed tickets. It
// implements service.TokenIssuer.
type jwtIssuer struct {
	signer jwtx.Signer
	issuer string
	ttl    time.Duration
}

func (i *jwtIssuer) IssueToken(ctx context.Context, t *domain.Ticket) (string, error) {
	clientID := ""
	if len(t.Presenters) > 0 {
		clientID = t.Presenters[0]
	}

	username := ""
	if t.Principal.Claims != nil {
		if v, ok := t.Principal.Claims["username"].(string); ok {
			username = v
		}
	}

	claims := jwtx.NewAccessClaims(
		t.Principal.Subject,
		clientID,
		username,
		t.Scopes,
		i.ttl,
		i.issuer,
		t.Resources,
		time.Now().UTC(),
	)

	return i.signer.Sign(claims)
}
