package services

import (
	"context"
	"errors"
	"strings"

	"github.com/techagentng/aquawatch/config"
	"github.com/techagentng/aquawatch/db"
	errs "github.com/techagentng/aquawatch/errors"
	"github.com/techagentng/aquawatch/models"
	"go.uber.org/zap"
)

// IdentityService mirrors identity-provider accounts into local users.
type IdentityService interface {
	ResolveUser(ctx context.Context, identity models.ExternalIdentity) (*models.User, error)
	GetUser(ctx context.Context, userID uint) (*models.User, error)
}

type identityService struct {
	Config   *config.Config
	authRepo db.AuthRepository
	logger   *zap.Logger
}

func NewIdentityService(authRepo db.AuthRepository, conf *config.Config, logger *zap.Logger) IdentityService {
	return &identityService{
		Config:   conf,
		authRepo: authRepo,
		logger:   logger,
	}
}

// ResolveUser returns the local user for an external identity, creating it on
// first sight. Lookup goes by provider id, then by email; an email match with
// no provider recorded gets the provider id and avatar backfilled.
func (s *identityService) ResolveUser(ctx context.Context, identity models.ExternalIdentity) (*models.User, error) {
	identity.Email = strings.ToLower(strings.TrimSpace(identity.Email))
	identity.ProviderID = strings.TrimSpace(identity.ProviderID)

	if identity.ProviderID != "" {
		user, err := s.authRepo.FindUserByProviderID(ctx, identity.ProviderID)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, errs.ErrNotFound) {
			return nil, err
		}
	}

	if identity.Email == "" {
		return nil, errs.ErrMissingEmail
	}

	user, err := s.authRepo.FindUserByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		if user.ProviderID == "" && identity.ProviderID != "" {
			s.logger.Info("linking identity provider to existing user",
				zap.Uint("user_id", user.ID))
			return s.authRepo.LinkProvider(ctx, user.ID, identity.ProviderID, identity.AvatarURL)
		}
		return user, nil
	case !errors.Is(err, errs.ErrNotFound):
		return nil, err
	}

	name := strings.TrimSpace(identity.Name)
	if name == "" {
		name = strings.SplitN(identity.Email, "@", 2)[0]
	}
	user, err = s.authRepo.CreateUser(ctx, &models.User{
		Email:      identity.Email,
		Name:       name,
		ProviderID: identity.ProviderID,
		AvatarURL:  identity.AvatarURL,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("created user from identity provider", zap.Uint("user_id", user.ID))
	return user, nil
}

func (s *identityService) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	return s.authRepo.FindUserByID(ctx, userID)
}
