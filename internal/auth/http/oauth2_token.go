package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/wrenauth/wren/internal/auth/domain"
	"github.com/wrenauth/wren/internal/auth/flow"
	"github.com/wrenauth/wren/internal/auth/service"
	"github.com/wrenauth/wren/pkg/authsdk"
	"github.com/wrenauth/wren/pkg/httpx"
	"github.com/wrenauth/wren/pkg/slogx"
)

var errWrongMethod = authsdk.NewError(authsdk.ErrorCodeInvalidRequest,
	"A malformed token request has been received: make sure to use POST.")

var errMalformedBody = authsdk.NewError(authsdk.ErrorCodeInvalidRequest,
	"A malformed token request has been received.")

// Form parameters consumed directly by the pipeline; everything else travels
// in TokenRequest.Extra for extension logic.
var reservedParams = map[string]struct{}{
	"grant_type":    {},
	"client_id":     {},
	"client_secret": {},
	"code":          {},
	"redirect_uri":  {},
	"code_verifier": {},
	"refresh_token": {},
	"username":      {},
	"password":      {},
	"scope":         {},
	"resource":      {},
}

// TokenHandler serves the OAuth2 token endpoint. Requests run through the
// four-stage pipeline owned by TokenService; Next receives the request when
// an extension yields with SkipToNextMiddleware.
type TokenHandler struct {
	TokenService *service.TokenService
	Next         http.Handler
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Token Endpoint
//	@Description	Issues tokens using OAuth2 grant types (authorization_code, refresh_token, password, client_credentials, and registered custom grants).
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			grant_type		formData	string					true	"Grant type"
//	@Param			code			formData	string					false	"Authorization code (authorization_code grant)"
//	@Param			redirect_uri	formData	string					false	"Redirect URI (required when the code was bound to one)"
//	@Param			code_verifier	formData	string					false	"PKCE code_verifier (required when the code carries a challenge)"
//	@Param			refresh_token	formData	string					false	"Refresh token (refresh_token grant)"
//	@Param			client_id		formData	string					false	"Client identifier"
//	@Param			client_secret	formData	string					false	"Client secret (confidential clients)"
//	@Param			username		formData	string					false	"Resource owner username (password grant)"
//	@Param			password		formData	string					false	"Resource owner password (password grant)"
//	@Param			scope			formData	string					false	"Space-delimited scopes"
//	@Param			resource		formData	string					false	"Target resource identifier (repeatable)"
//	@Success		200				{object}	authsdk.TokenResponse	"access_token, token_type, expires_in, refresh_token, scope"
//	@Failure		400				{object}	authsdk.ErrorResponse	"error, error_description, error_uri"
//	@Failure		401				{object}	authsdk.ErrorResponse	"error, error_description"
//	@Router			/v1/oauth2/token [post].
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	// Transport-level check, before any extension point runs.
	if r.Method != http.MethodPost {
		errWrongMethod.WriteError(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		errMalformedBody.WriteError(w)
		return
	}

	fc := flow.NewContext(decodeTokenRequest(r))

	if err := h.TokenService.Exchange(ctx, fc); err != nil {
		var cv *flow.ContractError
		switch {
		case errors.As(err, &cv):
			// Integration bug, not a bad request: fail loudly and keep the
			// diagnostic out of the OAuth error channel.
			log.Error("token pipeline contract violation", "stage", cv.Stage.String(), "reason", cv.Reason)
			http.Error(w, "internal server error", http.StatusInternalServerError)
		case ctx.Err() != nil:
			// Transport canceled mid-pipeline: abandon without a response.
			log.Info("token request abandoned", "error", ctx.Err())
		default:
			log.Error("token request failed", "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	switch fc.Outcome() {
	case flow.OutcomeSkipMiddleware:
		if h.Next != nil {
			h.Next.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	case flow.OutcomeRejected:
		fc.Rejection().WriteError(w)
	default:
		httpx.WriteJSON(w, http.StatusOK, fc.Response)
	}
}

// decodeTokenRequest maps the parsed form (and Basic authorization header)
// onto the pipeline's immutable request value.
func decodeTokenRequest(r *http.Request) *domain.TokenRequest {
	form := r.PostForm

	req := &domain.TokenRequest{
		GrantType:    strings.TrimSpace(form.Get("grant_type")),
		ClientID:     strings.TrimSpace(form.Get("client_id")),
		ClientSecret: form.Get("client_secret"),
		Code:         strings.TrimSpace(form.Get("code")),
		RedirectURI:  strings.TrimSpace(form.Get("redirect_uri")),
		CodeVerifier: strings.TrimSpace(form.Get("code_verifier")),
		RefreshToken: form.Get("refresh_token"),
		Username:     strings.TrimSpace(form.Get("username")),
		Password:     form.Get("password"),
		Scopes:       httpx.ParseSpaceDelimitedFields(form.Get("scope")),
	}

	if resources, ok := form["resource"]; ok {
		for _, res := range resources {
			if res = strings.TrimSpace(res); res != "" {
				req.Resources = append(req.Resources, res)
			}
		}
	}

	if id, secret, ok := r.BasicAuth(); ok {
		req.BasicAuth = true
		req.BasicID = id
		req.BasicSecret = secret
	}

	for name, values := range form {
		if _, reserved := reservedParams[name]; reserved {
			continue
		}
		if req.Extra == nil {
			req.Extra = make(map[string][]string)
		}
		req.Extra[name] = values
	}

	return req
}
