// Package pkce implements Proof Key for Code Exchange (RFC 7636) challenge
// verification for the token endpoint.
package pkce

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strings"
)

// Supported code_challenge_method values.
const (
	MethodPlain = "plain"
	MethodS256  = "S256"
)

// ComputeS256 derives the S256 code challenge for a verifier: the unpadded
// URL-safe base64 encoding of its SHA-256 digest.
func ComputeS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// Verify checks a supplied code_verifier against the stored challenge.
//
// An empty method is interpreted as "plain" and method names are matched
// case-insensitively; any other method fails verification. Comparisons are
// constant-time so redemption latency does not leak challenge material.
func Verify(method, challenge, verifier string) bool {
	if verifier == "" {
		return false
	}

	switch {
	case method == "" || strings.EqualFold(method, MethodPlain):
		return subtle.ConstantTimeCompare([]byte(challenge), []byte(verifier)) == 1
	case strings.EqualFold(method, MethodS256):
		expected := ComputeS256(verifier)
		return subtle.ConstantTimeCompare([]byte(challenge), []byte(expected)) == 1
	default:
		return false
	}
}
