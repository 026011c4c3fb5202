package app

import (
	"context"
	"errors"
	"time"

	"github.com/pquerna/otp/totp"

	"github.com/wrenauth/wren/internal/auth/domain"
	"github.com/wrenauth/wren/internal/auth/flow"
	"github.com/wrenauth/wren/internal/auth/service"
	"github.com/wrenauth/wren/internal/auth/store"
	"github.com/wrenauth/wren/pkg/authsdk"
	"github.com/wrenauth/wren/pkg/cryptox"
)

// GrantTypeOTP is a custom grant that exchanges a username plus a TOTP code
// for tokens, for devices where typing a password is impractical.
const GrantTypeOTP = "urn:wren:params:oauth:grant-type:otp"

// grantHandlers supplies the Handle-stage logic for the grants that do not
// redeem a stored ticket: password, client_credentials and the OTP grant.
// Code and refresh redemptions arrive here with the ticket already resolved,
// so they fall through to the built-in behaviour.
type grantHandlers struct {
	users store.Users
}

func (g *grantHandlers) handle(ctx context.Context, fc *flow.Context) error {
	req := fc.Request

	switch req.GrantType {
	case service.GrantPassword:
		return g.handlePassword(ctx, fc)
	case service.GrantClientCredentials:
		g.handleClientCredentials(fc)
		return nil
	case GrantTypeOTP:
		return g.handleOTP(ctx, fc)
	}
	return nil
}

func (g *grantHandlers) handlePassword(ctx context.Context, fc *flow.Context) error {
	req := fc.Request

	user, err := g.users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fc.Reject("", "Invalid username or password.", "")
			return nil
		}
		return err
	}

	if err := cryptox.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		fc.Reject("", "Invalid username or password.", "")
		return nil
	}

	fc.Issue(g.userTicket(user, req))
	return nil
}

func (g *grantHandlers) handleClientCredentials(fc *flow.Context) {
	req := fc.Request

	// The orchestrator guarantees the client authenticated before this runs.
	clientID := req.ClientID
	if clientID == "" {
		clientID = req.BasicID
	}

	fc.Issue(&domain.Ticket{
		Principal:       &domain.Principal{Subject: clientID},
		IssuedAt:        time.Now().UTC(),
		Presenters:      []string{clientID},
		Scopes:          req.Scopes,
		Resources:       req.Resources,
		Confidentiality: domain.ConfidentialityPrivate,
	})
}

func (g *grantHandlers) handleOTP(ctx context.Context, fc *flow.Context) error {
	req := fc.Request

	user, err := g.users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fc.Reject("", "Invalid username or one-time code.", "")
			return nil
		}
		return err
	}

	if user.TOTPSecret == nil || !totp.Validate(req.Param("otp_code"), *user.TOTPSecret) {
		fc.Reject("", "Invalid username or one-time code.", "")
		return nil
	}

	fc.Issue(g.userTicket(user, req))
	return nil
}

func (g *grantHandlers) userTicket(user domain.User, req *domain.TokenRequest) *domain.Ticket {
	t := &domain.Ticket{
		Principal: &domain.Principal{
			Subject: user.ID,
			Claims:  map[string]any{"username": user.Username},
		},
		IssuedAt:  time.Now().UTC(),
		Scopes:    req.Scopes,
		Resources: req.Resources,
	}
	if req.ClientID != "" {
		t.Presenters = []string{req.ClientID}
	}
	return t
}

// validateOTPGrant is the structural check registered for the OTP grant.
func validateOTPGrant(req *domain.TokenRequest) *authsdk.OAuth2Error {
	if req.Username == "" || req.Param("otp_code") == "" {
		return authsdk.NewError(authsdk.ErrorCodeInvalidRequest,
			"The mandatory 'username' and 'otp_code' parameters were missing.")
	}
	return nil
}
