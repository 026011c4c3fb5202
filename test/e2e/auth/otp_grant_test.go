package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func TestOTPGrant(t *testing.T) {
	env := setupServer(t)
	ctx := context.Background()

	t.Run("issues tokens for a valid one-time code", func(t *testing.T) {
		code, err := totp.GenerateCode(env.totpSecret, time.Now())
		require.NoError(t, err)

		tok, err := env.sdk.OTPGrant(ctx, testClientID, testUsername, code)
		require.NoError(t, err)

		requireBearer(t, tok)
		require.NotEmpty(t, tok.RefreshToken)
	})

	t.Run("rejects a wrong code", func(t *testing.T) {
		_, err := env.sdk.OTPGrant(ctx, testClientID, testUsername, "000000")
		requireOAuth2Error(t, err, "invalid_grant", "Invalid username or one-time code.")
	})

	t.Run("rejects an unknown user", func(t *testing.T) {
		code, err := totp.GenerateCode(env.totpSecret, time.Now())
		require.NoError(t, err)

		_, err = env.sdk.OTPGrant(ctx, testClientID, "nobody", code)
		requireOAuth2Error(t, err, "invalid_grant", "Invalid username or one-time code.")
	})

	t.Run("rejects missing parameters", func(t *testing.T) {
		_, err := env.sdk.OTPGrant(ctx, testClientID, testUsername, "")
		requireOAuth2Error(t, err, "invalid_request",
			"The mandatory 'username' and 'otp_code' parameters were missing.")
	})
}
