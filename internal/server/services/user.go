// Package services contains server-side business logic. This file implements
// UserService: credential create/update over the credential store, profile
// lookups and searches over the profile repository, and the password check
// that issues access tokens.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/portalusers/internal/common"
	"github.com/dmitrijs2005/portalusers/internal/dbx"
	"github.com/dmitrijs2005/portalusers/internal/server/auth"
	"github.com/dmitrijs2005/portalusers/internal/server/config"
	"github.com/dmitrijs2005/portalusers/internal/server/models"
	"github.com/dmitrijs2005/portalusers/internal/server/repositories/repomanager"
	"github.com/go-playground/validator/v10"
)

// UserService is stateless between calls; everything lives in the stores.
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	hasher                      auth.PasswordHasher
	validate                    *validator.Validate
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher auth.PasswordHasher, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		hasher:                      hasher,
		validate:                    newValidator(),
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

// newValidator adds "maxbytes", a byte-length cap. bcrypt refuses passwords
// longer than 72 bytes, which max= (counting runes) does not catch.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= n
	})
	return v
}

// CreateOrUpdate stores a freshly hashed credential for the candidate,
// creating or replacing it, and then copies email and display name onto the
// profile. A missing profile is created enabled. Both writes share one
// transaction.
func (s *UserService) CreateOrUpdate(ctx context.Context, candidate *models.UserCandidate) error {
	if err := s.validate.Struct(candidate); err != nil {
		return fmt.Errorf("%w: %s", common.ErrorValidation, err.Error())
	}

	hash, err := s.hasher.Encode(candidate.Password)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	cred := &models.Credential{
		UserName:     candidate.UserName,
		PasswordHash: hash,
		Authorities:  []string{common.DefaultAuthority},
		Enabled:      true,
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.saveCredential(ctx, tx, cred); err != nil {
			return err
		}

		repo := s.repomanager.Users(tx)
		user, err := repo.FindByUsername(ctx, candidate.UserName)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			user = &models.User{UserName: candidate.UserName, Enabled: true}
		case err != nil:
			return fmt.Errorf("error loading user: %w", err)
		}

		user.Email = candidate.Email
		user.DisplayName = candidate.DisplayName

		if _, err := repo.Save(ctx, user); err != nil {
			return fmt.Errorf("error saving user: %w", err)
		}
		return nil
	})
}

func (s *UserService) saveCredential(ctx context.Context, tx dbx.DBTX, cred *models.Credential) error {
	repo := s.repomanager.Credentials(tx)

	exists, err := repo.Exists(ctx, cred.UserName)
	if err != nil {
		return fmt.Errorf("error checking credential: %w", err)
	}

	if exists {
		err = repo.Update(ctx, cred)
	} else {
		err = repo.Create(ctx, cred)
	}
	if err != nil {
		return fmt.Errorf("error saving credential: %w", err)
	}
	return nil
}

// SearchUsers returns enabled users matching keyword. A blank keyword yields
// the first common.DefaultSearchLimit enabled users. Otherwise username
// matches come first, then display-name matches; a user matching both shows
// up twice. offset and limit are accepted for interface compatibility and do
// not affect the result.
func (s *UserService) SearchUsers(ctx context.Context, keyword string, offset, limit int) ([]models.UserSummary, error) {
	repo := s.repomanager.Users(s.db)

	if strings.TrimSpace(keyword) == "" {
		users, err := repo.FindFirstNByEnabled(ctx, common.DefaultSearchLimit, true)
		if err != nil {
			return nil, fmt.Errorf("error listing users: %w", err)
		}
		return models.Summaries(users), nil
	}

	byUserName, err := repo.FindByUsernameContainingAndEnabled(ctx, keyword, true)
	if err != nil {
		return nil, fmt.Errorf("error searching users by username: %w", err)
	}
	byDisplayName, err := repo.FindByDisplayNameContainingAndEnabled(ctx, keyword, true)
	if err != nil {
		return nil, fmt.Errorf("error searching users by display name: %w", err)
	}

	return models.Summaries(append(byUserName, byDisplayName...)), nil
}

// FindByUserID returns nil without error when the user does not exist.
func (s *UserService) FindByUserID(ctx context.Context, userID string) (*models.UserSummary, error) {
	user, err := s.repomanager.Users(s.db).FindByUsername(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	summary := user.Summary()
	return &summary, nil
}

// FindByUserIDs returns the summaries of the users that exist among userIDs.
func (s *UserService) FindByUserIDs(ctx context.Context, userIDs []string) ([]models.UserSummary, error) {
	if len(userIDs) == 0 {
		return []models.UserSummary{}, nil
	}
	users, err := s.repomanager.Users(s.db).FindByUsernameIn(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("error loading users: %w", err)
	}
	return models.Summaries(users), nil
}

// Authenticate checks password against the stored credential and returns an
// access token. Unknown users, disabled credentials and wrong passwords all
// yield common.ErrorUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, userName, password string) (string, error) {
	cred, err := s.repomanager.Credentials(s.db).Get(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", common.ErrorInternal
	}

	if !cred.Enabled || !s.hasher.Matches(password, cred.PasswordHash) {
		return "", common.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(cred.UserName, cred.Authorities, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

// adminEmail is the placeholder address of the bootstrap account; the
// username is not guaranteed to form a valid address.
const adminEmail = "admin@localhost.localdomain"

// EnsureAdmin provisions the bootstrap account unless a credential for
// userName already exists. It reports whether an account was created.
func (s *UserService) EnsureAdmin(ctx context.Context, userName, password string) (bool, error) {
	exists, err := s.repomanager.Credentials(s.db).Exists(ctx, userName)
	if err != nil {
		return false, fmt.Errorf("error checking credential: %w", err)
	}
	if exists {
		return false, nil
	}

	err = s.CreateOrUpdate(ctx, &models.UserCandidate{
		UserName:    userName,
		Password:    password,
		Email:       adminEmail,
		DisplayName: userName,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
