package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wrenauth/wren/internal/auth/domain"
	"github.com/wrenauth/wren/internal/auth/flow"
	"github.com/wrenauth/wren/pkg/authsdk"
)

// buildResponse assembles the standard token payload from the confirmed
// ticket: access token, token type, expiry, a rotated refresh token when
// policy issues one, and the granted scope when the ticket is restricted.
func (s *TokenService) buildResponse(ctx context.Context, fc *flow.Context, now time.Time) error {
	t := fc.Ticket

	access, err := s.Tokens.IssueToken(ctx, t)
	if err != nil {
		return fmt.Errorf("issue access token: %w", err)
	}

	// A refresh redemption may narrow the granted sets to what it asked for;
	// the subset checks have already passed by the time we get here.
	scopes := t.Scopes
	resources := t.Resources
	if fc.Request.GrantType == GrantRefreshToken {
		if len(fc.Request.Scopes) > 0 {
			scopes = fc.Request.Scopes
		}
		if len(fc.Request.Resources) > 0 {
			resources = fc.Request.Resources
		}
	}

	fc.Response[authsdk.ParamAccessToken] = access
	fc.Response[authsdk.ParamTokenType] = authsdk.TokenTypeBearer
	fc.Response[authsdk.ParamExpiresIn] = int(s.Options.AccessTokenTTL.Seconds())

	if s.issuesRefreshToken(fc.Request.GrantType) {
		fresh := s.mintRefreshTicket(t, scopes, resources, now)
		opaque, err := s.Tickets.SerializeRefreshToken(ctx, fresh)
		if err != nil {
			return fmt.Errorf("serialize refresh ticket: %w", err)
		}
		fc.Response[authsdk.ParamRefreshToken] = opaque

		// Rotation: once the replacement exists, the presented refresh token
		// is dead if the store supports revocation.
		if fc.Request.GrantType == GrantRefreshToken {
			if rev, ok := s.Tickets.(RefreshTokenRevoker); ok {
				if err := rev.RevokeRefreshToken(ctx, fc.Request.RefreshToken); err != nil {
					return fmt.Errorf("revoke presented refresh token: %w", err)
				}
			}
		}
	}

	if len(scopes) > 0 {
		fc.Response[authsdk.ParamScope] = strings.Join(scopes, " ")
	}
	return nil
}

// issuesRefreshToken reports whether the grant receives a refresh token.
// client_credentials never does: the client can always re-authenticate.
func (s *TokenService) issuesRefreshToken(grantType string) bool {
	return s.Options.IssueRefreshTokens && grantType != GrantClientCredentials
}

// mintRefreshTicket derives the fresh refresh ticket that is re-serialized
// alongside the issued grant. Authorization-code artifacts (redirect_uri,
// PKCE challenge) do not carry over.
func (s *TokenService) mintRefreshTicket(t *domain.Ticket, scopes, resources []string, now time.Time) *domain.Ticket {
	return &domain.Ticket{
		Principal:       t.Principal.Clone(),
		IssuedAt:        now,
		ExpiresAt:       now.Add(s.Options.RefreshTokenTTL),
		Presenters:      cloneSet(t.Presenters),
		Resources:       cloneSet(resources),
		Scopes:          cloneSet(scopes),
		Confidentiality: t.Confidentiality,
	}
}

func cloneSet(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
