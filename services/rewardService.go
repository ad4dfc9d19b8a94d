package services

import (
	"context"
	"fmt"

	"github.com/techagentng/aquawatch/config"
	"github.com/techagentng/aquawatch/db"
	errs "github.com/techagentng/aquawatch/errors"
	"github.com/techagentng/aquawatch/models"
	"go.uber.org/zap"
)

type RewardService interface {
	GetBalance(ctx context.Context, userID uint) (int, error)
	GetSummary(ctx context.Context, userID uint) (*models.RewardSummary, error)
	GetTransactions(ctx context.Context, userID uint) ([]models.Transaction, error)
	GetAvailableRewards(ctx context.Context, userID uint) ([]models.AvailableReward, error)
	RedeemReward(ctx context.Context, userID uint, rewardID uint) (*models.RewardProfile, error)
	GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

type rewardService struct {
	Config        *config.Config
	store         *db.GormDB
	rewardRepo    db.RewardRepository
	notifications NotificationService
	logger        *zap.Logger
}

func NewRewardService(store *db.GormDB, notifications NotificationService, conf *config.Config, logger *zap.Logger) RewardService {
	return &rewardService{
		Config:        conf,
		store:         store,
		rewardRepo:    db.NewRewardRepo(store),
		notifications: notifications,
		logger:        logger,
	}
}

// GetBalance is the authoritative balance, folded from the ledger.
func (s *rewardService) GetBalance(ctx context.Context, userID uint) (int, error) {
	return s.rewardRepo.GetBalance(ctx, userID)
}

// GetSummary returns the profile with its cached points rewritten from the
// ledger.
func (s *rewardService) GetSummary(ctx context.Context, userID uint) (*models.RewardSummary, error) {
	var summary models.RewardSummary
	err := s.store.Transaction(ctx, func(tx *db.GormDB) error {
		rewards := db.NewRewardRepo(tx)
		if _, err := rewards.LockProfile(ctx, userID); err != nil {
			return err
		}
		balance, err := rewards.GetBalance(ctx, userID)
		if err != nil {
			return err
		}
		profile, err := rewards.SetPoints(ctx, userID, balance)
		if err != nil {
			return err
		}
		summary = models.RewardSummary{Profile: profile, Balance: balance}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *rewardService) GetTransactions(ctx context.Context, userID uint) ([]models.Transaction, error) {
	return s.rewardRepo.GetTransactionsByUserID(ctx, userID)
}

// GetAvailableRewards lists the catalog behind a redeem-all entry priced at
// the user's current balance.
func (s *rewardService) GetAvailableRewards(ctx context.Context, userID uint) ([]models.AvailableReward, error) {
	balance, err := s.rewardRepo.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	offers, err := s.rewardRepo.GetAvailableOffers(ctx)
	if err != nil {
		return nil, err
	}

	rewards := make([]models.AvailableReward, 0, len(offers)+1)
	rewards = append(rewards, models.AvailableReward{
		ID:             models.RedeemAllRewardID,
		Name:           "Your Points",
		Cost:           balance,
		Description:    "Redeem your earned points",
		CollectionInfo: "Points earned from reporting and resolving water issues",
	})
	for _, offer := range offers {
		rewards = append(rewards, models.AvailableReward{
			ID:             offer.ID,
			Name:           offer.Name,
			Cost:           offer.Cost,
			Description:    offer.Description,
			CollectionInfo: offer.CollectionInfo,
		})
	}
	return rewards, nil
}

// RedeemReward spends points on an offer, or the whole balance when rewardID
// is RedeemAllRewardID. The balance check, the cache update and the ledger
// entry commit together; a failed check writes nothing.
func (s *rewardService) RedeemReward(ctx context.Context, userID uint, rewardID uint) (*models.RewardProfile, error) {
	var (
		updated     *models.RewardProfile
		cost        int
		description string
	)
	err := s.store.Transaction(ctx, func(tx *db.GormDB) error {
		rewards := db.NewRewardRepo(tx)
		profile, err := rewards.LockProfile(ctx, userID)
		if err != nil {
			return err
		}
		balance, err := rewards.GetBalance(ctx, userID)
		if err != nil {
			return err
		}

		newPoints := 0
		if rewardID == models.RedeemAllRewardID {
			if balance <= 0 {
				return errs.ErrInsufficientBalance
			}
			cost = balance
			description = fmt.Sprintf("Redeemed all points: %d", balance)
		} else {
			offer, err := rewards.GetOfferByID(ctx, rewardID)
			if err != nil {
				return err
			}
			if balance < offer.Cost {
				return errs.ErrInsufficientBalance
			}
			cost = offer.Cost
			description = fmt.Sprintf("Redeemed: %s", offer.Name)
			newPoints = profile.Points - cost
		}

		if updated, err = rewards.SetPoints(ctx, userID, newPoints); err != nil {
			return err
		}
		return rewards.CreateTransaction(ctx, &models.Transaction{
			UserID:      userID,
			Kind:        models.TransactionRedeemed,
			Amount:      cost,
			Description: description,
		})
	})
	if err != nil {
		s.logger.Info("redeem rejected",
			zap.Uint("user_id", userID),
			zap.Uint("reward_id", rewardID),
			zap.Error(err))
		return nil, err
	}

	notifyBestEffort(ctx, s.notifications, s.logger, userID,
		fmt.Sprintf("You redeemed %d points. %s", cost, description), models.NotificationRedemption)
	return updated, nil
}

func (s *rewardService) GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	return s.rewardRepo.GetLeaderboard(ctx, limit)
}
