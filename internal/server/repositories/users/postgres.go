// Package users provides the PostgreSQL-backed profile repository.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/portalusers/internal/common"
	"github.com/dmitrijs2005/portalusers/internal/dbx"
	"github.com/dmitrijs2005/portalusers/internal/server/models"
)

const selectColumns = `SELECT id, username, display_name, email, enabled, created_at, updated_at FROM users`

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindByUsername returns the exact match or common.ErrorNotFound.
func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := selectColumns + `
		WHERE username = $1
		`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID, &user.UserName, &user.DisplayName, &user.Email, &user.Enabled, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

// FindByUsernameContainingAndEnabled returns users whose username contains
// keyword as a literal, case-sensitive substring.
func (r *PostgresRepository) FindByUsernameContainingAndEnabled(ctx context.Context, keyword string, enabled bool) ([]*models.User, error) {
	query := selectColumns + `
		WHERE username LIKE $1 AND enabled = $2
		ORDER BY id
		`
	return r.list(ctx, query, containsPattern(keyword), enabled)
}

// FindByDisplayNameContainingAndEnabled is the display-name twin of
// FindByUsernameContainingAndEnabled.
func (r *PostgresRepository) FindByDisplayNameContainingAndEnabled(ctx context.Context, keyword string, enabled bool) ([]*models.User, error) {
	query := selectColumns + `
		WHERE display_name LIKE $1 AND enabled = $2
		ORDER BY id
		`
	return r.list(ctx, query, containsPattern(keyword), enabled)
}

func (r *PostgresRepository) FindFirstNByEnabled(ctx context.Context, n int, enabled bool) ([]*models.User, error) {
	query := selectColumns + `
		WHERE enabled = $1
		ORDER BY id
		LIMIT $2
		`
	return r.list(ctx, query, enabled, n)
}

// FindByUsernameIn returns the users among usernames that exist. An empty
// input returns an empty result without touching the database.
func (r *PostgresRepository) FindByUsernameIn(ctx context.Context, usernames []string) ([]*models.User, error) {
	if len(usernames) == 0 {
		return []*models.User{}, nil
	}

	placeholders := make([]string, len(usernames))
	args := make([]any, len(usernames))
	for i, name := range usernames {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = name
	}

	query := selectColumns + `
		WHERE username IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY id
		`
	return r.list(ctx, query, args...)
}

// Save inserts the user or, when the username already exists, updates its
// display name, email and enabled flag. The stored row is returned.
func (r *PostgresRepository) Save(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (username, display_name, email, enabled)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (username)
		 DO UPDATE SET
			display_name = EXCLUDED.display_name,
			email = EXCLUDED.email,
			enabled = EXCLUDED.enabled,
			updated_at = now()
		 RETURNING id, created_at, updated_at
		 `

	saved := *user
	err := r.db.QueryRowContext(ctx, query,
		user.UserName, user.DisplayName, user.Email, user.Enabled).Scan(&saved.ID, &saved.CreatedAt, &saved.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return &saved, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.UserName, &u.DisplayName, &u.Email, &u.Enabled, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns keyword into a LIKE pattern matching it anywhere.
func containsPattern(keyword string) string {
	return "%" + likeEscaper.Replace(keyword) + "%"
}
