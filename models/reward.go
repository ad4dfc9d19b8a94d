package models

// RewardProfile is the per-user points summary. Points is a cache of the
// transaction ledger and is overwritten whenever the profile is reconciled.
type RewardProfile struct {
	Model
	UserID         uint   `json:"user_id" gorm:"uniqueIndex;not null"`
	Name           string `json:"name"`
	CollectionInfo string `json:"collection_info"`
	Points         int    `json:"points" gorm:"not null;default:0"`
	Level          int    `json:"level" gorm:"not null;default:1"`
}

// RewardOffer is an entry of the redeemable catalog.
type RewardOffer struct {
	Model
	Name           string `json:"name" gorm:"not null"`
	Description    string `json:"description"`
	CollectionInfo string `json:"collection_info"`
	Cost           int    `json:"cost" gorm:"not null"`
	IsAvailable    bool   `json:"is_available" gorm:"not null"`
}

// RedeemAllRewardID selects the whole balance instead of a catalog offer.
const RedeemAllRewardID = 0

// AvailableReward is what the rewards page lists, including the redeem-all entry.
type AvailableReward struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	Cost           int    `json:"cost"`
	Description    string `json:"description"`
	CollectionInfo string `json:"collection_info"`
}

type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	UserID    uint   `json:"user_id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Points    int    `json:"points"`
	Level     int    `json:"level"`
}

type RewardSummary struct {
	Profile *RewardProfile `json:"profile"`
	Balance int            `json:"balance"`
}

var levelThresholds = []int{0, 100, 250, 500, 1000}

// LevelForPoints maps a points total to its tier, starting at 1.
func LevelForPoints(points int) int {
	level := 1
	for i, threshold := range levelThresholds {
		if points >= threshold {
			level = i + 1
		}
	}
	return level
}
