package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/portalusers/internal/dbx"
	"github.com/dmitrijs2005/portalusers/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/portalusers/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to a DBTX, so callers can
// choose between the pool and an open transaction per call.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Credentials(db dbx.DBTX) credentials.Repository
}
