package service

import (
	"context"
	"time"

	"github.com/wrenauth/wren/internal/auth/flow"
	"github.com/wrenauth/wren/pkg/slogx"
)

// Options is the immutable server configuration the orchestrator is
// constructed with. There is no ambient/global configuration.
type Options struct {
	// Issuer is the issuer identifier stamped on minted tokens.
	Issuer string

	// AuthorizationCodeGrant enables redemption of authorization codes.
	// When disabled, authorization_code requests are rejected with
	// unsupported_grant_type before any validator runs.
	AuthorizationCodeGrant bool

	// AccessTokenTTL bounds the lifetime of issued access tokens.
	AccessTokenTTL time.Duration

	// RefreshTokenTTL bounds the lifetime of freshly minted refresh tickets.
	RefreshTokenTTL time.Duration

	// IssueRefreshTokens controls whether successful grants (other than
	// client_credentials) receive a refresh token.
	IssueRefreshTokens bool

	// Clock supplies the current time; defaults to time.Now in UTC.
	Clock Clock
}

// TokenService is the token endpoint orchestrator. It composes the four-stage
// extension pipeline, the grant dispatch and the response builder into the
// end-to-end issuance flow.
//
// Each request runs on its own flow.Context; the service itself holds only
// read-only configuration and collaborators, so a single value serves
// concurrent requests.
type TokenService struct {
	Tickets TicketStore
	Clients ClientAuthenticator
	Tokens  TokenIssuer
	Events  flow.Events
	Options Options

	customGrants map[string]GrantValidator
}

// RegisterGrant installs a structural validator for a custom grant type.
// Must be called during setup, before the service starts taking requests.
func (s *TokenService) RegisterGrant(grantType string, v GrantValidator) {
	if s.customGrants == nil {
		s.customGrants = make(map[string]GrantValidator)
	}
	s.customGrants[grantType] = v
}

func (s *TokenService) now() time.Time {
	if s.Options.Clock != nil {
		return s.Options.Clock()
	}
	return time.Now().UTC()
}

// Exchange drives one token request through the pipeline:
//
//	Extract -> grant dispatch -> Validate -> ticket resolution -> Handle ->
//	response build -> Apply
//
// Protocol failures are recorded on fc as a rejection outcome; the returned
// error is reserved for contract violations, collaborator failures and
// context cancellation, all of which abandon the request without an OAuth
// response.
func (s *TokenService) Exchange(ctx context.Context, fc *flow.Context) error {
	req := fc.Request

	// Extract stage.
	if err := fc.RunStage(ctx, flow.StageExtract, s.Events.Extract); err != nil {
		return err
	}
	if fc.Done() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Grant dispatch.
	if req.GrantType == "" {
		fc.RejectError(errMissingGrantType)
		return nil
	}
	if req.GrantType == GrantAuthorizationCode && !s.Options.AuthorizationCodeGrant {
		fc.RejectError(errCodeGrantDisabled)
		return nil
	}

	// Validate stage.
	if err := fc.RunStage(ctx, flow.StageValidate, s.Events.Validate); err != nil {
		return err
	}
	if fc.Done() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	clientID := req.ClientID
	clientAuthenticated := false

	if fc.Validated() {
		// The Validate event asserted authentication; its consistency with
		// the request was checked at the call site.
		clientID = fc.ValidatedClient()
		clientAuthenticated = true
	} else {
		if oe := s.validateGrant(req); oe != nil {
			fc.RejectError(oe)
			return nil
		}

		// At most one client-authentication mechanism may be present.
		if req.HasFormCredentials() && req.HasBasicCredentials() {
			fc.RejectError(errMultipleCredentials)
			return nil
		}

		if req.HasClientCredentials() {
			id, err := s.Clients.AuthenticateClient(ctx, req)
			if err != nil {
				return err
			}
			if id == "" {
				fc.RejectError(errInvalidClient)
				return nil
			}
			clientID = id
			clientAuthenticated = true
		}

		if req.GrantType == GrantClientCredentials && !clientAuthenticated {
			fc.RejectError(errClientAuthRequired)
			return nil
		}
		if req.GrantType == GrantAuthorizationCode && clientID == "" {
			fc.RejectError(errMissingClientID)
			return nil
		}
	}

	// Ticket resolution for grants redeeming a stored ticket.
	now := s.now()
	switch req.GrantType {
	case GrantAuthorizationCode:
		t, err := s.Tickets.DeserializeAuthorizationCode(ctx, req.Code)
		if err != nil || t == nil {
			if err != nil {
				slogx.FromContext(ctx).Info("authorization code deserialization failed", "error", err)
			}
			fc.RejectError(errInvalidTicket)
			return nil
		}
		oe, cv := checkCodeTicket(t, req, clientID, clientAuthenticated, now)
		if cv != nil {
			return cv
		}
		if oe != nil {
			fc.RejectError(oe)
			return nil
		}
		fc.Ticket = t

	case GrantRefreshToken:
		t, err := s.Tickets.DeserializeRefreshToken(ctx, req.RefreshToken)
		if err != nil || t == nil {
			if err != nil {
				slogx.FromContext(ctx).Info("refresh token deserialization failed", "error", err)
			}
			fc.RejectError(errInvalidTicket)
			return nil
		}
		if oe := checkRefreshTicket(t, req, clientID, clientAuthenticated, now); oe != nil {
			fc.RejectError(oe)
			return nil
		}
		fc.Ticket = t
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Handle stage. The built-in outcome is simply "the resolved ticket
	// becomes the issued grant"; grants without a stored ticket rely on the
	// event calling Issue with a freshly authenticated principal.
	if err := fc.RunStage(ctx, flow.StageHandle, s.Events.Handle); err != nil {
		return err
	}
	if fc.Done() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if fc.Ticket == nil || fc.Ticket.Principal == nil {
		fc.RejectError(errRequestNotHandled)
		return nil
	}

	// Standard payload, then the Apply stage may mutate or replace it.
	if err := s.buildResponse(ctx, fc, now); err != nil {
		return err
	}

	return fc.RunStage(ctx, flow.StageApply, s.Events.Apply)
}
