package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wrenauth/wren/internal/auth/domain"
	"github.com/wrenauth/wren/pkg/pkce"
)

const codeVerifier = "e2e-code-verifier-0123456789-abcdefghijklmnop"

func codeTicket() *domain.Ticket {
	return &domain.Ticket{
		Principal: &domain.Principal{
			Subject: "user-e2e-1",
			Claims:  map[string]any{"username": testUsername},
		},
		IssuedAt:            time.Now().UTC(),
		ExpiresAt:           time.Now().UTC().Add(5 * time.Minute),
		Presenters:          []string{testClientID},
		Scopes:              []string{"openid", "profile"},
		RedirectURI:         testRedirectURI,
		CodeChallenge:       pkce.ComputeS256(codeVerifier),
		CodeChallengeMethod: pkce.MethodS256,
	}
}

func TestAuthorizationCodeGrant(t *testing.T) {
	env := setupServer(t)
	ctx := context.Background()

	t.Run("redeems a code with PKCE", func(t *testing.T) {
		code := env.mintAuthCode(t, codeTicket())

		tok, err := env.sdk.AuthorizationCodeGrant(ctx, testClientID, code, testRedirectURI, codeVerifier)
		require.NoError(t, err)

		requireBearer(t, tok)
		require.Equal(t, "openid profile", tok.Scope)
		require.NotEmpty(t, tok.RefreshToken)
	})

	t.Run("a code redeems exactly once", func(t *testing.T) {
		code := env.mintAuthCode(t, codeTicket())

		_, err := env.sdk.AuthorizationCodeGrant(ctx, testClientID, code, testRedirectURI, codeVerifier)
		require.NoError(t, err)

		_, err = env.sdk.AuthorizationCodeGrant(ctx, testClientID, code, testRedirectURI, codeVerifier)
		requireOAuth2Error(t, err, "invalid_grant", "Invalid ticket")
	})

	t.Run("rejects a wrong verifier and still burns the code", func(t *testing.T) {
		code := env.mintAuthCode(t, codeTicket())

		_, err := env.sdk.AuthorizationCodeGrant(ctx, testClientID, code, testRedirectURI, "wrong-verifier")
		requireOAuth2Error(t, err, "invalid_grant", "The specified 'code_verifier' was invalid.")

		_, err = env.sdk.AuthorizationCodeGrant(ctx, testClientID, code, testRedirectURI, codeVerifier)
		requireOAuth2Error(t, err, "invalid_grant", "Invalid ticket")
	})

	t.Run("rejects a missing verifier", func(t *testing.T) {
		code := env.mintAuthCode(t, codeTicket())

		_, err := env.sdk.AuthorizationCodeGrant(ctx, testClientID, code, testRedirectURI, "")
		requireOAuth2Error(t, err, "invalid_request",
			"The required 'code_verifier' was missing from the token request.")
	})

	t.Run("rejects a redirect_uri mismatch", func(t *testing.T) {
		code := env.mintAuthCode(t, codeTicket())

		_, err := env.sdk.AuthorizationCodeGrant(ctx, testClientID, code,
			"https://evil.test/callback", codeVerifier)
		requireOAuth2Error(t, err, "invalid_grant",
			"Authorization code does not contain matching redirect_uri")
	})

	t.Run("rejects the wrong client", func(t *testing.T) {
		code := env.mintAuthCode(t, codeTicket())

		_, err := env.sdk.AuthorizationCodeGrant(ctx, "fabrikam", code, testRedirectURI, codeVerifier)
		requireOAuth2Error(t, err, "invalid_grant", "Ticket does not contain matching client_id")
	})

	t.Run("rejects an expired code", func(t *testing.T) {
		tk := codeTicket()
		tk.ExpiresAt = time.Now().UTC().Add(-time.Minute)
		code := env.mintAuthCode(t, tk)

		_, err := env.sdk.AuthorizationCodeGrant(ctx, testClientID, code, testRedirectURI, codeVerifier)
		requireOAuth2Error(t, err, "invalid_grant", "Expired ticket")
	})
}
