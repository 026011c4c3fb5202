// Package auth_test runs the authorization server end to end: a real router,
// token pipeline and SQLite store behind an httptest server, driven through
// the authsdk client exactly as an external integration would.
package auth_test

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/wrenauth/wren/internal/auth/app"
	"github.com/wrenauth/wren/internal/auth/domain"
	authhttp "github.com/wrenauth/wren/internal/auth/http"
	"github.com/wrenauth/wren/internal/auth/store"
	"github.com/wrenauth/wren/internal/auth/store/drivers/sqlite"
	"github.com/wrenauth/wren/pkg/authsdk"
	"github.com/wrenauth/wren/pkg/cryptox"
	"github.com/wrenauth/wren/pkg/httpx"
	"github.com/wrenauth/wren/pkg/idx"
)

const (
	testClientID     = "contoso"
	testClientSecret = "correct-horse-battery-staple"
	testUsername     = "ferdinand"
	testPassword     = "p4ssword-for-e2e"
	testRedirectURI  = "https://app.contoso.test/callback"
)

func TestMain(m *testing.M) {
	// Every test in this package hammers the token endpoint from 127.0.0.1,
	// so the brute-force limit has to get out of the way before any router
	// captures it.
	httpx.StrictLimit = httpx.RateLimitConfig{
		RequestsPerWindow: 10000,
		Window:            time.Minute,
		Burst:             10000,
	}
	os.Exit(m.Run())
}

type testEnv struct {
	sdk        *authsdk.SDKClient
	db         store.Store
	totpSecret string
}

// setupServer boots a fully wired authorization server on a fresh database,
// seeded with one confidential client and one user with TOTP enrolled.
func setupServer(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	dsn := "file:" + filepath.Join(t.TempDir(), "wren.db") + "?_busy_timeout=5000"
	db, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.ApplyMigrations())

	secretHash, err := cryptox.HashPassword(testClientSecret)
	require.NoError(t, err)
	require.NoError(t, db.Clients().CreateClient(ctx, domain.Client{
		ID:         testClientID,
		Name:       "Contoso Portal",
		SecretHash: secretHash,
		Scopes:     []string{"openid", "profile"},
	}))

	passwordHash, err := cryptox.HashPassword(testPassword)
	require.NoError(t, err)
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "wren-e2e",
		AccountName: testUsername,
	})
	require.NoError(t, err)
	totpSecret := key.Secret()
	require.NoError(t, db.Users().CreateUser(ctx, domain.User{
		ID:           idx.New().String(),
		Username:     testUsername,
		PasswordHash: passwordHash,
		TOTPSecret:   &totpSecret,
	}))

	signer, err := app.NewEphemeralSigner()
	require.NoError(t, err)

	cfg := app.Config{
		Issuer:                 "https://auth.wren.test",
		AuthorizationCodeGrant: true,
		IssueRefreshTokens:     true,
		AccessTokenTTL:         15 * time.Minute,
		RefreshTokenTTL:        7 * 24 * time.Hour,
	}
	tokenService := app.NewTokenService(cfg, db, signer)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := authhttp.NewRouter("e2e-test", db, tokenService, logger)
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testEnv{
		sdk:        authsdk.NewSDKClient(srv.URL),
		db:         db,
		totpSecret: totpSecret,
	}
}

// mintAuthCode persists a code ticket directly, standing in for the
// authorization endpoint of a full deployment.
func (e *testEnv) mintAuthCode(t *testing.T, tk *domain.Ticket) string {
	t.Helper()
	code, err := e.db.Tickets().SerializeAuthorizationCode(context.Background(), tk)
	require.NoError(t, err)
	return code
}

func requireBearer(t *testing.T, tok *authsdk.TokenResponse) {
	t.Helper()
	require.NotEmpty(t, tok.AccessToken)
	require.Equal(t, "Bearer", tok.TokenType)
	require.Equal(t, 900, tok.ExpiresIn)
}

func requireOAuth2Error(t *testing.T, err error, code, description string) {
	t.Helper()
	require.Error(t, err)
	oe, ok := authsdk.AsOAuth2Error(err)
	require.True(t, ok, "expected a structured OAuth2 error, got: %v", err)
	require.Equal(t, code, oe.Code)
	require.Equal(t, description, oe.Description)
}
