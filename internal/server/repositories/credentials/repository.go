package credentials

import (
	"context"

	"github.com/dmitrijs2005/portalusers/internal/server/models"
)

// Repository is the credential store: username -> password hash + authorities.
type Repository interface {
	Exists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, cred *models.Credential) error
	Update(ctx context.Context, cred *models.Credential) error
	Get(ctx context.Context, username string) (*models.Credential, error)
}
