package service

import (
	"time"

	"github.com/wrenauth/wren/internal/auth/domain"
	"github.com/wrenauth/wren/internal/auth/flow"
	"github.com/wrenauth/wren/pkg/authsdk"
	"github.com/wrenauth/wren/pkg/pkce"
)

// Built-in grant types.
const (
	GrantAuthorizationCode = "authorization_code"
	GrantRefreshToken      = "refresh_token"
	GrantPassword          = "password"
	GrantClientCredentials = "client_credentials"
)

// Fixed protocol errors. The descriptions are part of the wire contract:
// existing clients and compatibility tests match them verbatim.
var (
	errMissingGrantType = authsdk.NewError(authsdk.ErrorCodeInvalidRequest,
		"The mandatory 'grant_type' parameter was missing.")
	errCodeGrantDisabled = authsdk.NewError(authsdk.ErrorCodeUnsupportedGrantType,
		"The authorization code grant is not allowed by this authorization server.")
	errMultipleCredentials = authsdk.NewError(authsdk.ErrorCodeInvalidRequest,
		"Multiple client credentials cannot be specified.")
	errInvalidClient = authsdk.NewError(authsdk.ErrorCodeInvalidClient,
		"Client authentication failed.")
	errInvalidTicket = authsdk.NewError(authsdk.ErrorCodeInvalidGrant,
		"Invalid ticket")
	errRequestNotHandled = authsdk.NewError(authsdk.ErrorCodeInvalidGrant,
		"The token request was rejected by the authorization server.")

	errMissingCode = authsdk.NewError(authsdk.ErrorCodeInvalidRequest,
		"The mandatory 'code' parameter was missing.")
	errMissingClientID = authsdk.NewError(authsdk.ErrorCodeInvalidRequest,
		"client_id was missing from the token request")
	errMissingRefreshToken = authsdk.NewError(authsdk.ErrorCodeInvalidRequest,
		"The mandatory 'refresh_token' parameter was missing.")
	errMissingPasswordParams = authsdk.NewError(authsdk.ErrorCodeInvalidRequest,
		"The mandatory 'username' and/or 'password' parameters was/were missing from the request message.")
	errClientAuthRequired = authsdk.NewError(authsdk.ErrorCodeInvalidGrant,
		"Client authentication is required when using client_credentials.")

	errTicketClientMismatch = authsdk.NewError(authsdk.ErrorCodeInvalidGrant,
		"Ticket does not contain matching client_id")
	errExpiredTicket = authsdk.NewError(authsdk.ErrorCodeInvalidGrant,
		"Expired ticket")
	errMissingRedirectURI = authsdk.NewError(authsdk.ErrorCodeInvalidRequest,
		"redirect_uri was missing from the token request")
	errRedirectURIMismatch = authsdk.NewError(authsdk.ErrorCodeInvalidGrant,
		"Authorization code does not contain matching redirect_uri")
	errMissingCodeVerifier = authsdk.NewError(authsdk.ErrorCodeInvalidRequest,
		"The required 'code_verifier' was missing from the token request.")
	errInvalidCodeVerifier = authsdk.NewError(authsdk.ErrorCodeInvalidGrant,
		"The specified 'code_verifier' was invalid.")
	errConfidentialTicket = authsdk.NewError(authsdk.ErrorCodeInvalidGrant,
		"Client authentication is required to use this ticket")

	errResourceNotInTicket = authsdk.NewError(authsdk.ErrorCodeInvalidGrant,
		"Token request cannot contain a resource parameter if the authorization request didn't contain one")
	errResourceMismatch = authsdk.NewError(authsdk.ErrorCodeInvalidGrant,
		"Token request doesn't contain a valid resource parameter")
	errScopeNotInTicket = authsdk.NewError(authsdk.ErrorCodeInvalidGrant,
		"Token request cannot contain a scope parameter if the authorization request didn't contain one")
	errScopeMismatch = authsdk.NewError(authsdk.ErrorCodeInvalidGrant,
		"Token request doesn't contain a valid scope parameter")
)

// errPresentersMissing signals a broken ticket deserializer, not a bad
// request: a code-grant ticket always carries at least one presenter by
// construction.
func errPresentersMissing() *flow.ContractError {
	return &flow.ContractError{
		Stage:  flow.StageValidate,
		Reason: "The presenters list cannot be extracted from the authorization code.",
	}
}

// GrantValidator performs the structural (required-field) checks for a custom
// grant type when the Validate stage has been skipped. Returning nil accepts
// the request shape; ticket production is up to Handle-stage logic.
type GrantValidator func(req *domain.TokenRequest) *authsdk.OAuth2Error

// validateGrant runs the built-in structural checks for the request's grant
// type. Custom registered grants run their own validator; unregistered grant
// types pass through untouched and must be granted by Handle-stage logic.
func (s *TokenService) validateGrant(req *domain.TokenRequest) *authsdk.OAuth2Error {
	switch req.GrantType {
	case GrantAuthorizationCode:
		if req.Code == "" {
			return errMissingCode
		}
	case GrantRefreshToken:
		if req.RefreshToken == "" {
			return errMissingRefreshToken
		}
	case GrantPassword:
		if req.Username == "" || req.Password == "" {
			return errMissingPasswordParams
		}
	case GrantClientCredentials:
		// The authentication requirement is enforced after the credential
		// resolution step, see Exchange.
	default:
		if v, ok := s.customGrants[req.GrantType]; ok {
			return v(req)
		}
	}
	return nil
}

// checkCodeTicket applies the authorization_code redemption checks in order,
// stopping at the first failure. A missing presenters list aborts with a
// contract error instead of a protocol error.
func checkCodeTicket(
	t *domain.Ticket,
	req *domain.TokenRequest,
	clientID string,
	clientAuthenticated bool,
	now time.Time,
) (*authsdk.OAuth2Error, *flow.ContractError) {
	if len(t.Presenters) == 0 {
		return nil, errPresentersMissing()
	}
	if !t.HasPresenter(clientID) {
		return errTicketClientMismatch, nil
	}
	if t.Expired(now) {
		return errExpiredTicket, nil
	}

	if t.RedirectURI != "" {
		if req.RedirectURI == "" {
			return errMissingRedirectURI, nil
		}
		if req.RedirectURI != t.RedirectURI {
			return errRedirectURIMismatch, nil
		}
	}

	if t.CodeChallenge != "" {
		if req.CodeVerifier == "" {
			return errMissingCodeVerifier, nil
		}
		if !pkce.Verify(t.CodeChallengeMethod, t.CodeChallenge, req.CodeVerifier) {
			return errInvalidCodeVerifier, nil
		}
	}

	if t.IsPrivate() && !clientAuthenticated {
		return errConfidentialTicket, nil
	}
	return nil, nil
}

// checkRefreshTicket applies the refresh_token redemption checks in order,
// stopping at the first failure. Resource and scope requests must stay within
// the sets the original authorization granted; absent sets forbid the
// parameter entirely.
func checkRefreshTicket(
	t *domain.Ticket,
	req *domain.TokenRequest,
	clientID string,
	clientAuthenticated bool,
	now time.Time,
) *authsdk.OAuth2Error {
	if clientID != "" && !t.HasPresenter(clientID) {
		return errTicketClientMismatch
	}
	if t.Expired(now) {
		return errExpiredTicket
	}
	if t.IsPrivate() && !clientAuthenticated {
		return errConfidentialTicket
	}

	if len(req.Resources) > 0 {
		if !t.HasResources() {
			return errResourceNotInTicket
		}
		if !t.ContainsResources(req.Resources) {
			return errResourceMismatch
		}
	}

	if len(req.Scopes) > 0 {
		if !t.HasScopes() {
			return errScopeNotInTicket
		}
		if !t.ContainsScopes(req.Scopes) {
			return errScopeMismatch
		}
	}
	return nil
}
