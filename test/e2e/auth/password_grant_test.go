package auth_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPasswordGrant(t *testing.T) {
	env := setupServer(t)
	ctx := context.Background()

	t.Run("issues tokens for valid credentials", func(t *testing.T) {
		tok, err := env.sdk.PasswordGrant(ctx, testClientID, testUsername, testPassword,
			[]string{"openid", "profile"})
		require.NoError(t, err)

		requireBearer(t, tok)
		require.Equal(t, "openid profile", tok.Scope)
		require.NotEmpty(t, tok.RefreshToken)

		// The access token is a signed JWT.
		require.Len(t, strings.Split(tok.AccessToken, "."), 3)
	})

	t.Run("works without a client_id", func(t *testing.T) {
		tok, err := env.sdk.PasswordGrant(ctx, "", testUsername, testPassword, nil)
		require.NoError(t, err)
		requireBearer(t, tok)
		require.Empty(t, tok.Scope)
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		_, err := env.sdk.PasswordGrant(ctx, testClientID, testUsername, "wrong", nil)
		requireOAuth2Error(t, err, "invalid_grant", "Invalid username or password.")
	})

	t.Run("rejects an unknown user", func(t *testing.T) {
		_, err := env.sdk.PasswordGrant(ctx, testClientID, "nobody", testPassword, nil)
		requireOAuth2Error(t, err, "invalid_grant", "Invalid username or password.")
	})

	t.Run("rejects missing credentials", func(t *testing.T) {
		_, err := env.sdk.PasswordGrant(ctx, testClientID, testUsername, "", nil)
		requireOAuth2Error(t, err, "invalid_request",
			"The mandatory 'username' and/or 'password' parameters was/were missing from the request message.")
	})
}
