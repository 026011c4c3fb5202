package sqlite

import (
	"context"
	"database/sql"

	"github.com/wrenauth/wren/internal/auth/domain"
)

type usersRepo struct {
	db *sql.DB
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, totp_secret, created_at, updated_at
		FROM users WHERE username = ?`, username,
	)

	var (
		u          domain.User
		totpSecret sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &totpSecret, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.TOTPSecret = mapNullStringPtr(totpSecret)
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, totp_secret)
		VALUES (?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, mapOptionalString(u.TOTPSecret),
	)
	return err
}
