package users

import (
	"context"

	"github.com/dmitrijs2005/portalusers/internal/server/models"
)

// Repository is the profile store, keyed by username.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByUsernameContainingAndEnabled(ctx context.Context, keyword string, enabled bool) ([]*models.User, error)
	FindByDisplayNameContainingAndEnabled(ctx context.Context, keyword string, enabled bool) ([]*models.User, error)
	FindFirstNByEnabled(ctx context.Context, n int, enabled bool) ([]*models.User, error)
	FindByUsernameIn(ctx context.Context, usernames []string) ([]*models.User, error)
	Save(ctx context.Context, user *models.User) (*models.User, error)
}
