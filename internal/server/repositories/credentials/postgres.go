// Package credentials provides the PostgreSQL-backed credential store, laid
// out as a credentials table plus one authorities row per granted authority.
package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/portalusers/internal/common"
	"github.com/dmitrijs2005/portalusers/internal/dbx"
	"github.com/dmitrijs2005/portalusers/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX. Create and Update
// issue several statements; run them on a *sql.Tx to make them atomic.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Exists(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM credentials WHERE username = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// Create inserts the credential and its authorities.
func (r *PostgresRepository) Create(ctx context.Context, cred *models.Credential) error {
	query :=
		`INSERT INTO credentials (username, password_hash, enabled)
		 VALUES ($1, $2, $3)
		 `
	if _, err := r.db.ExecContext(ctx, query, cred.UserName, cred.PasswordHash, cred.Enabled); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return r.insertAuthorities(ctx, cred)
}

// Update replaces the hash, enabled flag and authorities of an existing
// credential. common.ErrorNotFound is returned when there is none.
func (r *PostgresRepository) Update(ctx context.Context, cred *models.Credential) error {
	query :=
		`UPDATE credentials SET password_hash = $2, enabled = $3
		 WHERE username = $1
		 `
	res, err := r.db.ExecContext(ctx, query, cred.UserName, cred.PasswordHash, cred.Enabled)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM authorities WHERE username = $1`, cred.UserName); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return r.insertAuthorities(ctx, cred)
}

// Get loads the credential with its authorities or returns common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, username string) (*models.Credential, error) {
	query :=
		`SELECT username, password_hash, enabled FROM credentials
		 WHERE username = $1
		 `

	cred := &models.Credential{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(&cred.UserName, &cred.PasswordHash, &cred.Enabled)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT authority FROM authorities WHERE username = $1 ORDER BY authority`, username)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	cred.Authorities = []string{}
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		cred.Authorities = append(cred.Authorities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return cred, nil
}

func (r *PostgresRepository) insertAuthorities(ctx context.Context, cred *models.Credential) error {
	query :=
		`INSERT INTO authorities (username, authority)
		 VALUES ($1, $2)
		 ON CONFLICT DO NOTHING
		 `
	for _, a := range cred.Authorities {
		if _, err := r.db.ExecContext(ctx, query, cred.UserName, a); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}
