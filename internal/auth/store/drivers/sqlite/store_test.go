package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/wrenauth/wren/internal/auth/domain"
	"github.com/wrenauth/wren/internal/auth/store"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "wren.db") + "?_busy_timeout=5000"
	s, err := NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Ping(context.Background()))
}

func TestAuthorizationCodeRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := &domain.Ticket{
		Principal: &domain.Principal{
			Subject: "user-1",
			Claims:  map[string]any{"username": "ferdinand"},
		},
		IssuedAt:            time.Now().UTC(),
		ExpiresAt:           time.Now().UTC().Add(5 * time.Minute),
		Presenters:          []string{"contoso"},
		Resources:           []string{"https://api.test", "https://files.test"},
		Scopes:              []string{"openid", "profile"},
		RedirectURI:         "https://app.test/callback",
		CodeChallenge:       "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM",
		CodeChallengeMethod: "S256",
		Confidentiality:     domain.ConfidentialityPrivate,
		Properties:          map[string]string{"session": "sess-9"},
	}

	code, err := s.Tickets().SerializeAuthorizationCode(ctx, in)
	require.NoError(t, err)
	require.NotEmpty(t, code)

	out, err := s.Tickets().DeserializeAuthorizationCode(ctx, code)
	require.NoError(t, err)

	require.Equal(t, "user-1", out.Principal.Subject)
	require.Equal(t, "ferdinand", out.Principal.Claims["username"])
	require.Equal(t, in.Presenters, out.Presenters)
	require.Equal(t, in.Resources, out.Resources)
	require.Equal(t, in.Scopes, out.Scopes)
	require.Equal(t, in.RedirectURI, out.RedirectURI)
	require.Equal(t, in.CodeChallenge, out.CodeChallenge)
	require.Equal(t, in.CodeChallengeMethod, out.CodeChallengeMethod)
	require.Equal(t, domain.ConfidentialityPrivate, out.Confidentiality)
	require.Equal(t, in.Properties, out.Properties)
	require.WithinDuration(t, in.IssuedAt, out.IssuedAt, time.Second)
	require.WithinDuration(t, in.ExpiresAt, out.ExpiresAt, time.Second)
}

func TestAuthorizationCodeIsSingleUse(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	code, err := s.Tickets().SerializeAuthorizationCode(ctx, &domain.Ticket{
		Principal:  &domain.Principal{Subject: "user-1"},
		IssuedAt:   time.Now().UTC(),
		Presenters: []string{"contoso"},
	})
	require.NoError(t, err)

	_, err = s.Tickets().DeserializeAuthorizationCode(ctx, code)
	require.NoError(t, err)

	_, err = s.Tickets().DeserializeAuthorizationCode(ctx, code)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestAuthorizationCodeUnknown(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Tickets().DeserializeAuthorizationCode(context.Background(), "never-issued")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestTicketListSemanticsSurviveRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Absent restriction (nil) and present-but-empty restriction are distinct
	// states; redemption logic depends on that distinction.
	code, err := s.Tickets().SerializeAuthorizationCode(ctx, &domain.Ticket{
		Principal:  &domain.Principal{Subject: "user-1"},
		IssuedAt:   time.Now().UTC(),
		Presenters: []string{"contoso"},
		Resources:  nil,
		Scopes:     []string{},
	})
	require.NoError(t, err)

	out, err := s.Tickets().DeserializeAuthorizationCode(ctx, code)
	require.NoError(t, err)

	require.Nil(t, out.Resources)
	require.NotNil(t, out.Scopes)
	require.Empty(t, out.Scopes)
}

func TestRefreshTokenLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	token, err := s.Tickets().SerializeRefreshToken(ctx, &domain.Ticket{
		Principal:  &domain.Principal{Subject: "user-1"},
		IssuedAt:   time.Now().UTC(),
		ExpiresAt:  time.Now().UTC().Add(24 * time.Hour),
		Presenters: []string{"contoso"},
		Scopes:     []string{"openid"},
	})
	require.NoError(t, err)

	// Refresh tokens resolve repeatedly until revoked.
	for range 2 {
		out, err := s.Tickets().DeserializeRefreshToken(ctx, token)
		require.NoError(t, err)
		require.Equal(t, "user-1", out.Principal.Subject)
	}

	require.NoError(t, s.Tickets().RevokeRefreshToken(ctx, token))

	_, err = s.Tickets().DeserializeRefreshToken(ctx, token)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRevokeUnknownRefreshTokenIsNoop(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Tickets().RevokeRefreshToken(context.Background(), "never-issued"))
}

func TestExpiredTicketsStillResolve(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// The pipeline owns the expiry decision; the store must hand expired
	// tickets back so the caller can report them as expired, not invalid.
	token, err := s.Tickets().SerializeRefreshToken(ctx, &domain.Ticket{
		Principal:  &domain.Principal{Subject: "user-1"},
		IssuedAt:   time.Now().UTC().Add(-2 * time.Hour),
		ExpiresAt:  time.Now().UTC().Add(-time.Hour),
		Presenters: []string{"contoso"},
	})
	require.NoError(t, err)

	out, err := s.Tickets().DeserializeRefreshToken(ctx, token)
	require.NoError(t, err)
	require.True(t, out.Expired(time.Now().UTC()))
}

func TestPurgeExpired(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// Expired refresh token.
	_, err := s.Tickets().SerializeRefreshToken(ctx, &domain.Ticket{
		Principal: &domain.Principal{Subject: "user-1"},
		IssuedAt:  now.Add(-48 * time.Hour),
		ExpiresAt: now.Add(-24 * time.Hour),
	})
	require.NoError(t, err)

	// Consumed authorization code.
	code, err := s.Tickets().SerializeAuthorizationCode(ctx, &domain.Ticket{
		Principal:  &domain.Principal{Subject: "user-1"},
		IssuedAt:   now,
		Presenters: []string{"contoso"},
	})
	require.NoError(t, err)
	_, err = s.Tickets().DeserializeAuthorizationCode(ctx, code)
	require.NoError(t, err)

	// Live refresh token that must survive the purge.
	keep, err := s.Tickets().SerializeRefreshToken(ctx, &domain.Ticket{
		Principal: &domain.Principal{Subject: "user-2"},
		IssuedAt:  now,
		ExpiresAt: now.Add(24 * time.Hour),
	})
	require.NoError(t, err)

	purged, err := s.Tickets().PurgeExpired(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	require.EqualValues(t, 2, purged)

	_, err = s.Tickets().DeserializeRefreshToken(ctx, keep)
	require.NoError(t, err)
}

func TestClientsRepo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		_, err := s.Clients().GetClientByID(ctx, "missing")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("confidential round trip", func(t *testing.T) {
		require.NoError(t, s.Clients().CreateClient(ctx, domain.Client{
			ID:         "contoso",
			Name:       "Contoso Portal",
			SecretHash: "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
			Scopes:     []string{"openid", "profile"},
		}))

		c, err := s.Clients().GetClientByID(ctx, "contoso")
		require.NoError(t, err)
		require.Equal(t, "Contoso Portal", c.Name)
		require.Equal(t, []string{"openid", "profile"}, c.Scopes)
		require.True(t, c.Confidential())
	})

	t.Run("public client has no secret", func(t *testing.T) {
		require.NoError(t, s.Clients().CreateClient(ctx, domain.Client{
			ID:   "fabrikam-spa",
			Name: "Fabrikam SPA",
		}))

		c, err := s.Clients().GetClientByID(ctx, "fabrikam-spa")
		require.NoError(t, err)
		require.False(t, c.Confidential())
		require.Empty(t, c.SecretHash)
	})
}

func TestUsersRepo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		_, err := s.Users().GetUserByUsername(ctx, "missing")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("round trip with totp secret", func(t *testing.T) {
		secret := "JBSWY3DPEHPK3PXP"
		require.NoError(t, s.Users().CreateUser(ctx, domain.User{
			ID:           "user-1",
			Username:     "ferdinand",
			PasswordHash: "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
			TOTPSecret:   &secret,
		}))

		u, err := s.Users().GetUserByUsername(ctx, "ferdinand")
		require.NoError(t, err)
		require.Equal(t, "user-1", u.ID)
		require.NotNil(t, u.TOTPSecret)
		require.Equal(t, secret, *u.TOTPSecret)
	})

	t.Run("totp secret is optional", func(t *testing.T) {
		require.NoError(t, s.Users().CreateUser(ctx, domain.User{
			ID:           "user-2",
			Username:     "beatrice",
			PasswordHash: "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		}))

		u, err := s.Users().GetUserByUsername(ctx, "beatrice")
		require.NoError(t, err)
		require.Nil(t, u.TOTPSecret)
	})
}
