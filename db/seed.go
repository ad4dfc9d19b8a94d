package db

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/techagentng/aquawatch/models"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

//go:embed fixtures/seed.yaml
var seedYAML []byte

// SeedSummary counts what SeedFixtures inserted.
type SeedSummary struct {
	Users         int `json:"users"`
	Reports       int `json:"reports"`
	Offers        int `json:"offers"`
	Transactions  int `json:"transactions"`
	Notifications int `json:"notifications"`
}

type fixtures struct {
	Users []struct {
		Key        string `yaml:"key"`
		ProviderID string `yaml:"provider_id"`
		Email      string `yaml:"email"`
		Name       string `yaml:"name"`
		AvatarURL  string `yaml:"avatar_url"`
	} `yaml:"users"`
	Reports []struct {
		Key            string  `yaml:"key"`
		Owner          string  `yaml:"owner"`
		Collector      string  `yaml:"collector"`
		Location       string  `yaml:"location"`
		WaterIssueType string  `yaml:"water_issue_type"`
		Severity       string  `yaml:"severity"`
		Status         string  `yaml:"status"`
		ImageURL       string  `yaml:"image_url"`
		Latitude       float64 `yaml:"latitude"`
		Longitude      float64 `yaml:"longitude"`
		Analysis       string  `yaml:"analysis"`
	} `yaml:"reports"`
	Profiles []struct {
		User           string `yaml:"user"`
		Name           string `yaml:"name"`
		CollectionInfo string `yaml:"collection_info"`
		Points         int    `yaml:"points"`
		Level          int    `yaml:"level"`
	} `yaml:"profiles"`
	Offers []struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Cost        int    `yaml:"cost"`
	} `yaml:"offers"`
	Collected []struct {
		Report    string `yaml:"report"`
		Collector string `yaml:"collector"`
		DaysAgo   int    `yaml:"days_ago"`
		Status    string `yaml:"status"`
	} `yaml:"collected"`
	Notifications []struct {
		User    string `yaml:"user"`
		Message string `yaml:"message"`
		Type    string `yaml:"type"`
		IsRead  bool   `yaml:"is_read"`
	} `yaml:"notifications"`
	Transactions []struct {
		User        string `yaml:"user"`
		Type        string `yaml:"type"`
		Amount      int    `yaml:"amount"`
		Description string `yaml:"description"`
	} `yaml:"transactions"`
}

func loadFixtures() (*fixtures, error) {
	var f fixtures
	if err := yaml.Unmarshal(seedYAML, &f); err != nil {
		return nil, fmt.Errorf("parsing seed fixtures: %w", err)
	}
	return &f, nil
}

func verification(analysis string, lat, lng float64) datatypes.JSON {
	payload, _ := json.Marshal(map[string]interface{}{
		"analysis":    analysis,
		"coordinates": map[string]float64{"lat": lat, "lng": lng},
	})
	return datatypes.JSON(payload)
}

// SeedFixtures fills the store with demonstration data. Users and offers are
// matched on email and name; reports, notifications and ledger rows are
// appended on every call.
func SeedFixtures(ctx context.Context, g *GormDB) (*SeedSummary, error) {
	f, err := loadFixtures()
	if err != nil {
		return nil, err
	}

	summary := &SeedSummary{}
	err = g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := make(map[string]uint, len(f.Users))
		for _, u := range f.Users {
			user := models.User{ProviderID: u.ProviderID, Email: u.Email, Name: u.Name, AvatarURL: u.AvatarURL}
			if err := tx.FirstOrCreate(&user, models.User{Email: u.Email}).Error; err != nil {
				return fmt.Errorf("seeding users: %w", err)
			}
			users[u.Key] = user.ID
		}
		summary.Users = len(users)

		userID := func(key string) (uint, error) {
			id, ok := users[key]
			if !ok {
				return 0, fmt.Errorf("seed fixtures reference unknown user %q", key)
			}
			return id, nil
		}

		reports := make(map[string]uint)
		for _, r := range f.Reports {
			owner, err := userID(r.Owner)
			if err != nil {
				return err
			}
			report := models.Report{
				UserID:             owner,
				Location:           r.Location,
				WaterIssueType:     r.WaterIssueType,
				Severity:           r.Severity,
				Description:        r.Analysis,
				ImageURL:           r.ImageURL,
				Latitude:           r.Latitude,
				Longitude:          r.Longitude,
				Status:             r.Status,
				VerificationResult: verification(r.Analysis, r.Latitude, r.Longitude),
			}
			if r.Collector != "" {
				collectorID, err := userID(r.Collector)
				if err != nil {
					return err
				}
				report.CollectorID = &collectorID
			}
			if err := tx.Omit("User", "Collector").Create(&report).Error; err != nil {
				return fmt.Errorf("seeding reports: %w", err)
			}
			if r.Key != "" {
				reports[r.Key] = report.ID
			}
			summary.Reports++
		}

		for _, p := range f.Profiles {
			owner, err := userID(p.User)
			if err != nil {
				return err
			}
			profile := models.RewardProfile{UserID: owner, Name: p.Name, CollectionInfo: p.CollectionInfo, Points: p.Points, Level: p.Level}
			if err := tx.Where(models.RewardProfile{UserID: owner}).
				Assign(profile).
				FirstOrCreate(&profile).Error; err != nil {
				return fmt.Errorf("seeding reward profiles: %w", err)
			}
		}

		for _, o := range f.Offers {
			offer := models.RewardOffer{
				Name:           o.Name,
				Description:    o.Description,
				CollectionInfo: "Redeemable with conservation points",
				Cost:           o.Cost,
				IsAvailable:    true,
			}
			if err := tx.FirstOrCreate(&offer, models.RewardOffer{Name: o.Name}).Error; err != nil {
				return fmt.Errorf("seeding reward offers: %w", err)
			}
			summary.Offers++
		}

		for _, ci := range f.Collected {
			reportID, ok := reports[ci.Report]
			if !ok {
				return fmt.Errorf("seed fixtures reference unknown report %q", ci.Report)
			}
			collectorID, err := userID(ci.Collector)
			if err != nil {
				return err
			}
			issue := models.CollectedIssue{
				ReportID:       reportID,
				CollectorID:    collectorID,
				CollectionDate: time.Now().AddDate(0, 0, -ci.DaysAgo),
				Status:         ci.Status,
			}
			if err := tx.Create(&issue).Error; err != nil {
				return fmt.Errorf("seeding collected issues: %w", err)
			}
		}

		for _, n := range f.Notifications {
			owner, err := userID(n.User)
			if err != nil {
				return err
			}
			notification := models.Notification{UserID: owner, Message: n.Message, Type: n.Type, IsRead: n.IsRead}
			if err := tx.Create(&notification).Error; err != nil {
				return fmt.Errorf("seeding notifications: %w", err)
			}
			summary.Notifications++
		}

		now := time.Now()
		for _, t := range f.Transactions {
			owner, err := userID(t.User)
			if err != nil {
				return err
			}
			if !models.ValidTransactionKind(t.Type) {
				return fmt.Errorf("seed fixtures use unknown transaction type %q", t.Type)
			}
			transaction := models.Transaction{UserID: owner, Kind: t.Type, Amount: t.Amount, Description: t.Description, Date: now}
			if err := tx.Create(&transaction).Error; err != nil {
				return fmt.Errorf("seeding transactions: %w", err)
			}
			summary.Transactions++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}
