package authsdk

// Reserved token-response parameter names. External Apply-stage logic may add
// further parameters alongside these.
const (
	ParamAccessToken  = "access_token"
	ParamTokenType    = "token_type"
	ParamExpiresIn    = "expires_in"
	ParamRefreshToken = "refresh_token"
	ParamScope        = "scope"
)

// TokenTypeBearer is the only token_type this server issues.
const TokenTypeBearer = "Bearer"

// TokenResponse is the standard token endpoint success payload per RFC 6749
// §5.1, used by clients and tests to decode responses. The server side builds
// the payload as an open map so extensions can add custom parameters.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// ErrorResponse is the token endpoint failure payload per RFC 6749 §5.2.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	ErrorURI         string `json:"error_uri,omitempty"`
}

// HealthResponse is the payload returned by the liveness and readiness probes.
type HealthResponse struct {
	Status  string            `json:"status"`
	Uptime  string            `json:"uptime"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}
