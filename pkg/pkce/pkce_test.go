package pkce_test

import (
	"testing"

	"github.com/wrenauth/wren/pkg/pkce"
	"github.com/stretchr/testify/require"
)

// Appendix B of RFC 7636.
const (
	rfcVerifier  = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	rfcChallenge = "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
)

func TestComputeS256(t *testing.T) {
	require.Equal(t, rfcChallenge, pkce.ComputeS256(rfcVerifier))
}

func TestVerifyS256(t *testing.T) {
	require.True(t, pkce.Verify(pkce.MethodS256, rfcChallenge, rfcVerifier))

	// Method names match case-insensitively
	require.True(t, pkce.Verify("s256", rfcChallenge, rfcVerifier))

	require.False(t, pkce.Verify(pkce.MethodS256, rfcChallenge, "wrong-verifier"))
	require.False(t, pkce.Verify(pkce.MethodS256, "wrong-challenge", rfcVerifier))
}

func TestVerifyPlain(t *testing.T) {
	require.True(t, pkce.Verify(pkce.MethodPlain, "some-verifier", "some-verifier"))
	require.True(t, pkce.Verify("PLAIN", "some-verifier", "some-verifier"))

	// An empty method means plain
	require.True(t, pkce.Verify("", "some-verifier", "some-verifier"))

	require.False(t, pkce.Verify(pkce.MethodPlain, "some-verifier", "other-verifier"))
}

func TestVerifyRejectsUnknownMethod(t *testing.T) {
	require.False(t, pkce.Verify("S512", "some-verifier", "some-verifier"))
}

func TestVerifyRejectsEmptyVerifier(t *testing.T) {
	require.False(t, pkce.Verify(pkce.MethodS256, rfcChallenge, ""))
	require.False(t, pkce.Verify(pkce.MethodPlain, "", ""))
}
