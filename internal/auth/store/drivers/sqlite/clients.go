package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/wrenauth/wren/internal/auth/domain"
)

type clientsRepo struct {
	db *sql.DB
}

func (r *clientsRepo) GetClientByID(ctx context.Context, id string) (domain.Client, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, secret_hash, scopes, created_at, updated_at
		FROM clients WHERE id = ?`, id,
	)

	var (
		c          domain.Client
		secretHash sql.NullString
		scopes     string
	)
	if err := row.Scan(&c.ID, &c.Name, &secretHash, &scopes, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return domain.Client{}, mapNotFound(err)
	}

	c.SecretHash = mapNullString(secretHash)
	if scopes != "" {
		c.Scopes = strings.Fields(scopes)
	}
	return c, nil
}

func (r *clientsRepo) CreateClient(ctx context.Context, c domain.Client) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, secret_hash, scopes)
		VALUES (?, ?, ?, ?)`,
		c.ID, c.Name, mapStringNull(c.SecretHash), strings.Join(c.Scopes, " "),
	)
	return err
}
