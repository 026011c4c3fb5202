package domain

import "net/url"

// TokenRequest is the parsed token-endpoint request. It is populated once by
// the transport layer and treated as read-only for the rest of the pipeline.
type TokenRequest struct {
	GrantType string

	// Client identification. ClientID/ClientSecret come from the form body;
	// BasicID/BasicSecret from an Authorization: Basic header. Supplying both
	// mechanisms at once is a protocol error surfaced by the orchestrator.
	ClientID     string
	ClientSecret string
	BasicID      string
	BasicSecret  string
	BasicAuth    bool

	// authorization_code grant
	Code         string
	RedirectURI  string
	CodeVerifier string

	// refresh_token grant
	RefreshToken string

	// password grant
	Username string
	Password string

	Scopes    []string // parsed from the space-delimited scope parameter
	Resources []string // the resource parameter may repeat

	// Extra holds every form parameter not mapped above, for custom grants
	// and extension logic.
	Extra url.Values
}

// HasFormCredentials reports whether a client_secret parameter was supplied.
func (r *TokenRequest) HasFormCredentials() bool {
	return r.ClientSecret != ""
}

// HasBasicCredentials reports whether an Authorization: Basic header was
// supplied.
func (r *TokenRequest) HasBasicCredentials() bool {
	return r.BasicAuth
}

// HasClientCredentials reports whether any client authentication mechanism is
// present on the request.
func (r *TokenRequest) HasClientCredentials() bool {
	return r.HasFormCredentials() || r.HasBasicCredentials()
}

// Param returns an extension parameter by name, or "" when absent.
func (r *TokenRequest) Param(name string) string {
	if r.Extra == nil {
		return ""
	}
	return r.Extra.Get(name)
}
