package db

import (
	"context"

	"github.com/pkg/errors"
	errs "github.com/techagentng/aquawatch/errors"
	"github.com/techagentng/aquawatch/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AuthRepository interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByProviderID(ctx context.Context, providerID string) (*models.User, error)
	LinkProvider(ctx context.Context, userID uint, providerID, avatarURL string) (*models.User, error)
}

type authRepo struct {
	DB *gorm.DB
}

func NewAuthRepo(db *GormDB) AuthRepository {
	return &authRepo{db.DB}
}

// CreateUser inserts the user unless the email is already taken, in which
// case the existing row is returned. Two first logins racing on the same
// email both end up with the same record.
func (a *authRepo) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if user == nil {
		return nil, errors.New("user is nil")
	}
	err := a.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(user).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not create user")
	}
	return a.FindUserByEmail(ctx, user.Email)
}

func (a *authRepo) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	user := &models.User{}
	if err := a.DB.WithContext(ctx).First(user, id).Error; err != nil {
		return nil, notFound(err, "could not find user")
	}
	return user, nil
}

func (a *authRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	if err := a.DB.WithContext(ctx).Where("email = ?", email).First(user).Error; err != nil {
		return nil, notFound(err, "could not find user")
	}
	return user, nil
}

func (a *authRepo) FindUserByProviderID(ctx context.Context, providerID string) (*models.User, error) {
	user := &models.User{}
	err := a.DB.WithContext(ctx).Where("provider_id = ? AND provider_id <> ''", providerID).First(user).Error
	if err != nil {
		return nil, notFound(err, "could not find user")
	}
	return user, nil
}

// LinkProvider records the provider reference and avatar on an account that
// was created before the provider was connected. Accounts that are already
// linked are left untouched.
func (a *authRepo) LinkProvider(ctx context.Context, userID uint, providerID, avatarURL string) (*models.User, error) {
	err := a.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND (provider_id = '' OR provider_id IS NULL)", userID).
		Updates(map[string]interface{}{
			"provider_id": providerID,
			"avatar_url":  avatarURL,
		}).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not link provider")
	}
	return a.FindUserByID(ctx, userID)
}

// notFound maps a missing row to errs.ErrNotFound and wraps everything else.
func notFound(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.ErrNotFound
	}
	return errors.Wrap(err, message)
}
