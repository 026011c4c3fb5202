package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wrenauth/wren/internal/auth/domain"
	"github.com/wrenauth/wren/pkg/cryptox"
)

const (
	kindAuthorizationCode = "authorization_code"
	kindRefreshToken      = "refresh_token"
)

const ticketColumns = `subject, claims, presenters, resources, scopes,
	redirect_uri, code_challenge, code_challenge_method, confidentiality,
	properties, issued_at, expires_at`

type ticketsRepo struct {
	db *sql.DB
}

func (r *ticketsRepo) SerializeAuthorizationCode(ctx context.Context, t *domain.Ticket) (string, error) {
	return r.serialize(ctx, kindAuthorizationCode, t)
}

func (r *ticketsRepo) SerializeRefreshToken(ctx context.Context, t *domain.Ticket) (string, error) {
	return r.serialize(ctx, kindRefreshToken, t)
}

func (r *ticketsRepo) serialize(ctx context.Context, kind string, t *domain.Ticket) (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}

	claims, err := json.Marshal(t.Principal.Claims)
	if err != nil {
		return "", fmt.Errorf("marshal ticket claims: %w", err)
	}
	properties, err := json.Marshal(t.Properties)
	if err != nil {
		return "", fmt.Errorf("marshal ticket properties: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO tickets (token_hash, kind, `+ticketColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cryptox.FingerprintToken(token), kind,
		t.Principal.Subject, string(claims),
		joinList(t.Presenters), joinList(t.Resources), joinList(t.Scopes),
		t.RedirectURI, t.CodeChallenge, t.CodeChallengeMethod,
		string(t.Confidentiality), string(properties),
		t.IssuedAt, mapTimeNull(t.ExpiresAt),
	)
	if err != nil {
		return "", err
	}
	return token, nil
}

// DeserializeAuthorizationCode consumes a code atomically: the UPDATE both
// marks the row used and returns it, so a code redeems exactly once even
// under concurrent requests. Expiry is deliberately not filtered here.
func (r *ticketsRepo) DeserializeAuthorizationCode(ctx context.Context, code string) (*domain.Ticket, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE tickets SET used_at = CURRENT_TIMESTAMP
		WHERE token_hash = ? AND kind = ? AND used_at IS NULL
		RETURNING `+ticketColumns,
		cryptox.FingerprintToken(code), kindAuthorizationCode,
	)
	return scanTicket(row)
}

func (r *ticketsRepo) DeserializeRefreshToken(ctx context.Context, token string) (*domain.Ticket, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+ticketColumns+` FROM tickets
		WHERE token_hash = ? AND kind = ? AND revoked = FALSE`,
		cryptox.FingerprintToken(token), kindRefreshToken,
	)
	return scanTicket(row)
}

func (r *ticketsRepo) RevokeRefreshToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE tickets SET revoked = TRUE
		WHERE token_hash = ? AND kind = ?`,
		cryptox.FingerprintToken(token), kindRefreshToken,
	)
	return err
}

func (r *ticketsRepo) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM tickets
		WHERE (expires_at IS NOT NULL AND expires_at < ?)
		   OR (used_at IS NOT NULL AND used_at < ?)
		   OR (revoked = TRUE AND issued_at < ?)`,
		cutoff, cutoff, cutoff,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanTicket(row *sql.Row) (*domain.Ticket, error) {
	var (
		t          domain.Ticket
		subject    string
		claims     string
		properties string
		presenters sql.NullString
		resources  sql.NullString
		scopes     sql.NullString
		level      string
		expiresAt  sql.NullTime
	)

	err := row.Scan(
		&subject, &claims, &presenters, &resources, &scopes,
		&t.RedirectURI, &t.CodeChallenge, &t.CodeChallengeMethod,
		&level, &properties, &t.IssuedAt, &expiresAt,
	)
	if err != nil {
		return nil, mapNotFound(err)
	}

	t.Principal = &domain.Principal{Subject: subject}
	if err := json.Unmarshal([]byte(claims), &t.Principal.Claims); err != nil {
		return nil, fmt.Errorf("unmarshal ticket claims: %w", err)
	}
	if err := json.Unmarshal([]byte(properties), &t.Properties); err != nil {
		return nil, fmt.Errorf("unmarshal ticket properties: %w", err)
	}

	t.Presenters = splitList(presenters)
	t.Resources = splitList(resources)
	t.Scopes = splitList(scopes)
	t.Confidentiality = domain.ConfidentialityLevel(level)
	t.ExpiresAt = mapNullTime(expiresAt)

	return &t, nil
}
