package app

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/wrenauth/wren/pkg/idx"
	"github.com/wrenauth/wren/pkg/jwtx"
)

// NewEphemeralSigner generates a fresh Ed25519 keypair for this process
// lifetime. Tokens do not survive a restart, which is acceptable for the
// reference deployment; embedders needing durable keys supply their own
// jwtx.Signer.
func NewEphemeralSigner() (jwtx.Signer, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate Ed25519 key: %w", err)
	}

	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("marshal PKCS8: %w", err)
	}

	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	signer, err := jwtx.NewSignerEdDSA(idx.New().String(), pemKey)
	if err != nil {
		return nil, err
	}
	if err := signer.Validate(); err != nil {
		return nil, err
	}
	return signer, nil
}
