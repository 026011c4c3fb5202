package domain

import "time"

// Client is a registered OAuth2 client. Public clients have no secret hash.
type Client struct {
	ID         string
	Name       string
	SecretHash string // argon2id PHC string; empty for public clients
	Scopes     []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Confidential reports whether the client registered a secret.
func (c Client) Confidential() bool { return c.SecretHash != "" }
