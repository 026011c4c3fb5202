package app

import (
	"context"
	"errors"

	"github.com/wrenauth/wren/internal/auth/domain"
	"github.com/wrenauth/wren/internal/auth/store"
	"github.com/wrenauth/wren/pkg/cryptox"
)

// storeClientAuthenticator verifies client credentials against the registered
// clients table. It implements service.ClientAuthenticator: a "" result means
// the credentials did not verify, errors are reserved for store failures.
type storeClientAuthenticator struct {
	clients store.Clients
}

func (a *storeClientAuthenticator) AuthenticateClient(ctx context.Context, req *domain.TokenRequest) (string, error) {
	id, secret := req.ClientID, req.ClientSecret
	if req.BasicAuth {
		id, secret = req.BasicID, req.BasicSecret
	}
	if id == "" || secret == "" {
		return "", nil
	}

	client, err := a.clients.GetClientByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil
		}
		return "", err
	}

	// Public clients have nothing to verify a secret against.
	if !client.Confidential() {
		return "", nil
	}

	if err := cryptox.VerifyPassword(secret, client.SecretHash); err != nil {
		return "", nil
	}
	return client.ID, nil
}
