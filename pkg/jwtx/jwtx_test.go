package jwtx_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wrenauth/wren/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func newTestSigner(t *testing.T) jwtx.Signer {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	signer, err := jwtx.NewSignerEdDSA("test-kid", pemKey)
	require.NoError(t, err)
	require.NoError(t, signer.Validate())
	return signer
}

func TestNewAccessClaims(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	claims := jwtx.NewAccessClaims(
		"user-1", "contoso", "ferdinand",
		[]string{"openid", "profile"},
		15*time.Minute,
		"https://auth.test",
		[]string{"https://api.test"},
		now,
	)

	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "contoso", claims.ClientID)
	require.Equal(t, "ferdinand", claims.Username)
	require.Equal(t, "https://auth.test", claims.Issuer)
	require.Equal(t, jwt.ClaimStrings{"https://api.test"}, claims.Audience)
	require.Equal(t, []string{"openid", "profile"}, claims.Scopes)
	require.Equal(t, now.Add(15*time.Minute), claims.ExpiresAt.Time)
	require.Equal(t, now, claims.IssuedAt.Time)
	require.NotEmpty(t, claims.ID)
}

func TestJTIUniqueness(t *testing.T) {
	seen := map[string]bool{}
	for range 100 {
		jti := jwtx.NewJTI()
		require.False(t, seen[jti])
		seen[jti] = true
	}
}

func TestEdDSASignerSign(t *testing.T) {
	signer := newTestSigner(t)
	require.Equal(t, "EdDSA", signer.Alg())
	require.Equal(t, "test-kid", signer.KID())

	now := time.Now().UTC()
	claims := jwtx.NewAccessClaims("user-1", "contoso", "ferdinand",
		[]string{"openid"}, time.Minute, "https://auth.test", nil, now)

	token, err := signer.Sign(claims)
	require.NoError(t, err)

	// Decode without verification to assert header and payload shape; the
	// server never verifies its own tokens.
	parsed, _, err := jwt.NewParser().ParseUnverified(token, &jwtx.Claims{})
	require.NoError(t, err)

	require.Equal(t, "EdDSA", parsed.Header["alg"])
	require.Equal(t, "test-kid", parsed.Header["kid"])

	out, ok := parsed.Claims.(*jwtx.Claims)
	require.True(t, ok)
	require.Equal(t, "user-1", out.Subject)
	require.Equal(t, "contoso", out.ClientID)
	require.Equal(t, []string{"openid"}, out.Scopes)
}

func TestNewSignerEdDSARejectsBadKeys(t *testing.T) {
	_, err := jwtx.NewSignerEdDSA("kid", []byte("not pem"))
	require.Error(t, err)

	// A PEM block of the wrong type is rejected before parsing.
	bad := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: []byte{1, 2, 3}})
	_, err = jwtx.NewSignerEdDSA("kid", bad)
	require.Error(t, err)
}
