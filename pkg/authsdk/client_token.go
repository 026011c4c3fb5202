package authsdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// AuthorizationCodeGrant redeems an authorization code. codeVerifier may be
// empty when the code was issued without a PKCE challenge.
func (c *SDKClient) AuthorizationCodeGrant(
	ctx context.Context,
	clientID, code, redirectURI, codeVerifier string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type": {"authorization_code"},
		"code":       {code},
		"client_id":  {clientID},
	}
	if redirectURI != "" {
		data.Set("redirect_uri", redirectURI)
	}
	if codeVerifier != "" {
		data.Set("code_verifier", codeVerifier)
	}

	return c.requestToken(ctx, data)
}

// RefreshGrant requests new tokens using a refresh token.
func (c *SDKClient) RefreshGrant(
	ctx context.Context,
	clientID, refreshToken string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {clientID},
	}

	return c.requestToken(ctx, data)
}

// PasswordGrant exchanges resource owner credentials for tokens.
func (c *SDKClient) PasswordGrant(
	ctx context.Context,
	clientID, username, password string,
	scopes []string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type": {"password"},
		"username":   {username},
		"password":   {password},
	}
	if clientID != "" {
		data.Set("client_id", clientID)
	}
	if len(scopes) > 0 {
		data.Set("scope", strings.Join(scopes, " "))
	}

	return c.requestToken(ctx, data)
}

// ClientCredentialsGrant requests an access token using the OAuth2
// client_credentials grant. This grant is for machine-to-machine
// authentication where a client authenticates as itself (not on behalf of a
// user). The client must be confidential (have a secret).
//
// Note: this grant does NOT return a refresh token, clients can
// re-authenticate anytime.
func (c *SDKClient) ClientCredentialsGrant(
	ctx context.Context,
	clientID, clientSecret string,
	scopes []string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {clientID},
		"client_secret": {clientSecret},
	}
	if len(scopes) > 0 {
		data.Set("scope", strings.Join(scopes, " "))
	}

	return c.requestToken(ctx, data)
}

// OTPGrant exchanges a username plus a TOTP code for tokens using the wren
// OTP extension grant.
func (c *SDKClient) OTPGrant(
	ctx context.Context,
	clientID, username, otpCode string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type": {"urn:wren:params:oauth:grant-type:otp"},
		"username":   {username},
		"otp_code":   {otpCode},
	}
	if clientID != "" {
		data.Set("client_id", clientID)
	}

	return c.requestToken(ctx, data)
}

func (c *SDKClient) requestToken(ctx context.Context, data url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.BaseURL+"/v1/oauth2/token",
		strings.NewReader(data.Encode()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)

		// Surface protocol errors structurally so callers can branch on the
		// error code instead of string-matching.
		var oauthErr OAuth2Error
		if jsonErr := json.Unmarshal(body, &oauthErr); jsonErr == nil && oauthErr.Code != "" {
			oauthErr.StatusCode = resp.StatusCode
			return nil, &oauthErr
		}

		return nil, fmt.Errorf(
			"token request failed with status %d: %s",
			resp.StatusCode,
			string(body),
		)
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &tokenResp, nil
}

// AsOAuth2Error extracts a protocol error from err, if it carries one.
func AsOAuth2Error(err error) (*OAuth2Error, bool) {
	var oe *OAuth2Error
	if errors.As(err, &oe) {
		return oe, true
	}
	return nil, false
}
