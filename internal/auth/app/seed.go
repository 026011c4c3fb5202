package app

import (
	"context"
	"errors"

	"github.com/wrenauth/wren/internal/auth/domain"
	"github.com/wrenauth/wren/internal/auth/store"
	"github.com/wrenauth/wren/pkg/cryptox"
)

const devClientID = "wren-dev"

// seedDev registers a confidential development client on first startup so the
// token endpoint is usable out of the box. The generated secret is logged
// once; it is never recoverable afterwards.
func (app *Application) seedDev(ctx context.Context) error {
	_, err := app.db.Clients().GetClientByID(ctx, devClientID)
	if err == nil {
		return nil // already seeded
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	secret, err := cryptox.GeneratePassword()
	if err != nil {
		return err
	}
	hash, err := cryptox.HashPassword(secret)
	if err != nil {
		return err
	}

	err = app.db.Clients().CreateClient(ctx, domain.Client{
		ID:         devClientID,
		Name:       "Wren Development Client",
		SecretHash: hash,
		Scopes:     []string{"openid", "profile"},
	})
	if err != nil {
		return err
	}

	app.logger.Info("seeded development client",
		"client_id", devClientID,
		"client_secret", secret,
	)
	return nil
}
