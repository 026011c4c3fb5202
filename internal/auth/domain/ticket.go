package domain

import (
	"time"
)

// ConfidentialityLevel controls which callers may redeem a ticket.
type ConfidentialityLevel string

const (
	// ConfidentialityPublic tickets may be redeemed by any client.
	ConfidentialityPublic ConfidentialityLevel = "public"

	// ConfidentialityPrivate tickets may only be redeemed by a request that
	// presented verified client credentials.
	ConfidentialityPrivate ConfidentialityLevel = "private"
)

// Principal is the authenticated identity bound to a ticket: a stable subject
// identifier plus an open set of claims.
type Principal struct {
	Subject string
	Claims  map[string]any
}

// Clone returns a deep-enough copy (claims map is copied, values are shared).
func (p *Principal) Clone() *Principal {
	if p == nil {
		return nil
	}
	out := &Principal{Subject: p.Subject}
	if p.Claims != nil {
		out.Claims = make(map[string]any, len(p.Claims))
		for k, v := range p.Claims {
			out.Claims[k] = v
		}
	}
	return out
}

// Ticket is a server-held record of a previously granted authorization. It is
// created by the authorization endpoint (or minted fresh when a refresh token
// is issued), serialized to an opaque string, and resolved back here when that
// string is redeemed at the token endpoint.
//
// Presenters, Resources and Scopes distinguish "absent" (nil: the restriction
// does not apply to this ticket) from "present" (a non-empty set). Redemption
// logic relies on that distinction, so code constructing tickets must never
// confuse the two.
type Ticket struct {
	Principal *Principal

	IssuedAt  time.Time
	ExpiresAt time.Time // zero means no expiry recorded

	Presenters []string // client ids allowed to redeem this ticket
	Resources  []string
	Scopes     []string

	RedirectURI         string
	CodeChallenge       string
	CodeChallengeMethod string

	Confidentiality ConfidentialityLevel

	// Properties carries any non-reserved ticket properties end to end.
	Properties map[string]string
}

// Expired reports whether the ticket's expiry has passed at the given instant.
// Tickets without a recorded expiry never expire.
func (t *Ticket) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

// HasPresenter reports whether clientID is allowed to redeem this ticket.
func (t *Ticket) HasPresenter(clientID string) bool {
	for _, p := range t.Presenters {
		if p == clientID {
			return true
		}
	}
	return false
}

// IsPrivate reports whether redemption requires client authentication.
func (t *Ticket) IsPrivate() bool {
	return t.Confidentiality == ConfidentialityPrivate
}

// HasResources reports whether the ticket carries a resource restriction.
// A nil/empty set means the authorization request did not name any resources.
func (t *Ticket) HasResources() bool { return len(t.Resources) > 0 }

// HasScopes reports whether the ticket carries a scope restriction.
func (t *Ticket) HasScopes() bool { return len(t.Scopes) > 0 }

// ContainsResources reports whether every requested resource is part of the
// ticket's resource set.
func (t *Ticket) ContainsResources(requested []string) bool {
	return subset(requested, t.Resources)
}

// ContainsScopes reports whether every requested scope is part of the
// ticket's scope set.
func (t *Ticket) ContainsScopes(requested []string) bool {
	return subset(requested, t.Scopes)
}

func subset(requested, granted []string) bool {
	set := make(map[string]struct{}, len(granted))
	for _, g := range granted {
		set[g] = struct{}{}
	}
	for _, r := range requested {
		if _, ok := set[r]; !ok {
			return false
		}
	}
	return true
}
