package db

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/techagentng/aquawatch/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultLeaderboardLimit = 50

type RewardRepository interface {
	GetOrCreateProfile(ctx context.Context, userID uint) (*models.RewardProfile, error)
	LockProfile(ctx context.Context, userID uint) (*models.RewardProfile, error)
	IncrementPoints(ctx context.Context, userID uint, points int) (*models.RewardProfile, error)
	SetPoints(ctx context.Context, userID uint, points int) (*models.RewardProfile, error)
	CreateTransaction(ctx context.Context, transaction *models.Transaction) error
	GetTransactionsByUserID(ctx context.Context, userID uint) ([]models.Transaction, error)
	GetBalance(ctx context.Context, userID uint) (int, error)
	AwardPoints(ctx context.Context, userID uint, kind string, amount int, description string) (*models.RewardProfile, error)
	GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	CreateOffer(ctx context.Context, offer *models.RewardOffer) error
	GetOfferByID(ctx context.Context, id uint) (*models.RewardOffer, error)
	GetAvailableOffers(ctx context.Context) ([]models.RewardOffer, error)
}

type rewardRepo struct {
	DB *gorm.DB
}

func NewRewardRepo(db *GormDB) RewardRepository {
	return &rewardRepo{db.DB}
}

// GetOrCreateProfile returns the user's reward profile, inserting a default
// one first if needed. The insert is an upsert on the unique user_id, so
// concurrent first calls cannot produce two rows.
func (r *rewardRepo) GetOrCreateProfile(ctx context.Context, userID uint) (*models.RewardProfile, error) {
	profile := models.RewardProfile{
		UserID:         userID,
		Name:           "Default Reward",
		CollectionInfo: "Default Collection Info",
		Points:         0,
		Level:          1,
	}
	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&profile).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not create reward profile")
	}
	return r.getProfile(ctx, userID)
}

func (r *rewardRepo) getProfile(ctx context.Context, userID uint) (*models.RewardProfile, error) {
	var profile models.RewardProfile
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, notFound(err, "could not fetch reward profile")
	}
	return &profile, nil
}

// LockProfile is GetOrCreateProfile for use inside a transaction: on
// postgres the row stays locked until the transaction ends, which serializes
// concurrent redemptions by the same user.
func (r *rewardRepo) LockProfile(ctx context.Context, userID uint) (*models.RewardProfile, error) {
	profile, err := r.GetOrCreateProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if r.DB.Dialector.Name() != "postgres" {
		return profile, nil
	}
	err = r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(profile).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not lock reward profile")
	}
	return profile, nil
}

// IncrementPoints adds to the cached total. It is not authoritative; the
// ledger is.
func (r *rewardRepo) IncrementPoints(ctx context.Context, userID uint, points int) (*models.RewardProfile, error) {
	if _, err := r.GetOrCreateProfile(ctx, userID); err != nil {
		return nil, err
	}
	err := r.DB.WithContext(ctx).Model(&models.RewardProfile{}).
		Where("user_id = ?", userID).
		Update("points", gorm.Expr("points + ?", points)).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not update reward points")
	}
	return r.syncLevel(ctx, userID)
}

func (r *rewardRepo) SetPoints(ctx context.Context, userID uint, points int) (*models.RewardProfile, error) {
	if points < 0 {
		points = 0
	}
	if _, err := r.GetOrCreateProfile(ctx, userID); err != nil {
		return nil, err
	}
	err := r.DB.WithContext(ctx).Model(&models.RewardProfile{}).
		Where("user_id = ?", userID).
		Update("points", points).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not set reward points")
	}
	return r.syncLevel(ctx, userID)
}

func (r *rewardRepo) syncLevel(ctx context.Context, userID uint) (*models.RewardProfile, error) {
	profile, err := r.getProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	level := models.LevelForPoints(profile.Points)
	if level == profile.Level {
		return profile, nil
	}
	if err := r.DB.WithContext(ctx).Model(profile).Update("level", level).Error; err != nil {
		return nil, errors.Wrap(err, "could not update reward level")
	}
	profile.Level = level
	return profile, nil
}

func (r *rewardRepo) CreateTransaction(ctx context.Context, transaction *models.Transaction) error {
	if transaction.Amount < 0 {
		return errors.Errorf("transaction amount must not be negative, got %d", transaction.Amount)
	}
	if !models.ValidTransactionKind(transaction.Kind) {
		return errors.Errorf("unknown transaction kind %q", transaction.Kind)
	}
	if transaction.Date.IsZero() {
		transaction.Date = time.Now()
	}
	if err := r.DB.WithContext(ctx).Create(transaction).Error; err != nil {
		return errors.Wrap(err, "could not create transaction")
	}
	return nil
}

func (r *rewardRepo) GetTransactionsByUserID(ctx context.Context, userID uint) ([]models.Transaction, error) {
	transactions := []models.Transaction{}
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC, id DESC").
		Find(&transactions).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not fetch transactions")
	}
	return transactions, nil
}

// GetBalance folds the user's full ledger.
func (r *rewardRepo) GetBalance(ctx context.Context, userID uint) (int, error) {
	transactions, err := r.GetTransactionsByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return models.ComputeBalance(transactions), nil
}

// AwardPoints appends an earning to the ledger and bumps the cached total in
// one database transaction.
func (r *rewardRepo) AwardPoints(ctx context.Context, userID uint, kind string, amount int, description string) (*models.RewardProfile, error) {
	if !models.IsEarning(kind) {
		return nil, errors.Errorf("%q is not an earning kind", kind)
	}
	var profile *models.RewardProfile
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &rewardRepo{tx}
		if err := txRepo.CreateTransaction(ctx, &models.Transaction{
			UserID:      userID,
			Kind:        kind,
			Amount:      amount,
			Description: description,
		}); err != nil {
			return err
		}
		var err error
		profile, err = txRepo.IncrementPoints(ctx, userID, amount)
		return err
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// GetLeaderboard ranks users by their ledger balance.
func (r *rewardRepo) GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	var rows []struct {
		UserID    uint
		Name      string
		AvatarURL string
		Points    int
		Level     int
	}
	err := r.DB.WithContext(ctx).
		Table("transactions").
		Select(`users.id AS user_id, users.name, users.avatar_url,
			COALESCE(SUM(CASE WHEN SUBSTR(transactions.kind, 1, 7) = 'earned_' THEN transactions.amount ELSE -transactions.amount END), 0) AS points,
			COALESCE(MAX(reward_profiles.level), 1) AS level`).
		Joins("JOIN users ON users.id = transactions.user_id").
		Joins("LEFT JOIN reward_profiles ON reward_profiles.user_id = users.id").
		Group("users.id, users.name, users.avatar_url").
		Order("points DESC, users.id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not compute leaderboard")
	}

	entries := make([]models.LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		points := row.Points
		if points < 0 {
			points = 0
		}
		entries = append(entries, models.LeaderboardEntry{
			Rank:      i + 1,
			UserID:    row.UserID,
			Name:      row.Name,
			AvatarURL: row.AvatarURL,
			Points:    points,
			Level:     row.Level,
		})
	}
	return entries, nil
}

func (r *rewardRepo) CreateOffer(ctx context.Context, offer *models.RewardOffer) error {
	if err := r.DB.WithContext(ctx).Create(offer).Error; err != nil {
		return errors.Wrap(err, "could not create reward offer")
	}
	return nil
}

func (r *rewardRepo) GetOfferByID(ctx context.Context, id uint) (*models.RewardOffer, error) {
	var offer models.RewardOffer
	if err := r.DB.WithContext(ctx).Where("id = ? AND is_available = ?", id, true).First(&offer).Error; err != nil {
		return nil, notFound(err, "could not fetch reward offer")
	}
	return &offer, nil
}

func (r *rewardRepo) GetAvailableOffers(ctx context.Context) ([]models.RewardOffer, error) {
	offers := []models.RewardOffer{}
	err := r.DB.WithContext(ctx).Where("is_available = ?", true).Order("cost ASC").Find(&offers).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not fetch reward offers")
	}
	return offers, nil
}
