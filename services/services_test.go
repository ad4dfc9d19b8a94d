package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/techagentng/aquawatch/config"
	"github.com/techagentng/aquawatch/db"
	"github.com/techagentng/aquawatch/models"
	"go.uber.org/zap"
)

type testEnv struct {
	store         *db.GormDB
	conf          *config.Config
	notifications NotificationService
	collection    CollectionService
	rewards       RewardService
	reports       ReportService
	identity      IdentityService
	images        *memoryImageStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := db.NewSQLiteDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := store.DB.DB(); err == nil {
			sqlDB.Close()
		}
	})

	conf := &config.Config{ReportReward: 10, CollectReward: 20}
	logger := zap.NewNop()
	notifications := NewNotificationService(db.NewNotificationRepo(store), logger)
	images := &memoryImageStore{objects: map[string][]byte{}}
	return &testEnv{
		store:         store,
		conf:          conf,
		notifications: notifications,
		collection:    NewCollectionService(store, notifications, conf, logger),
		rewards:       NewRewardService(store, notifications, conf, logger),
		reports:       NewReportService(store, images, conf, logger),
		identity:      NewIdentityService(db.NewAuthRepo(store), conf, logger),
		images:        images,
	}
}

func (e *testEnv) user(t *testing.T, email string) *models.User {
	t.Helper()
	user, err := db.NewAuthRepo(e.store).CreateUser(context.Background(), &models.User{Email: email, Name: email})
	require.NoError(t, err)
	return user
}

func (e *testEnv) report(t *testing.T, userID uint) *models.Report {
	t.Helper()
	report, err := db.NewReportRepo(e.store).CreateReport(context.Background(), &models.Report{
		UserID:         userID,
		Location:       "Grenadier Pond",
		WaterIssueType: "Unusual Odor",
		Severity:       models.SeverityMedium,
		Description:    "Sulfur smell near the north shore",
	})
	require.NoError(t, err)
	return report
}

func (e *testEnv) earn(t *testing.T, userID uint, amount int) {
	t.Helper()
	_, err := db.NewRewardRepo(e.store).AwardPoints(context.Background(), userID, models.TransactionEarnedReport, amount, "test credit")
	require.NoError(t, err)
}

func (e *testEnv) transactions(t *testing.T, userID uint) []models.Transaction {
	t.Helper()
	transactions, err := db.NewRewardRepo(e.store).GetTransactionsByUserID(context.Background(), userID)
	require.NoError(t, err)
	return transactions
}

func (e *testEnv) unread(t *testing.T, userID uint) []models.Notification {
	t.Helper()
	unread, err := e.notifications.ListUnread(context.Background(), userID)
	require.NoError(t, err)
	return unread
}

type memoryImageStore struct {
	objects map[string][]byte
	err     error
}

func (m *memoryImageStore) Upload(_ context.Context, key, _ string, body []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.objects[key] = body
	return "memory://" + key, nil
}

// failingNotifications loses every message.
type failingNotifications struct {
	NotificationService
}

func (failingNotifications) Notify(context.Context, uint, string, string) (*models.Notification, error) {
	return nil, errors.New("outbox unavailable")
}
