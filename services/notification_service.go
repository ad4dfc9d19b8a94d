package services

import (
	"context"

	"github.com/techagentng/aquawatch/db"
	"github.com/techagentng/aquawatch/models"
	"go.uber.org/zap"
)

// NotificationService is the per-user outbox. Clients pull unread messages on
// whatever cadence they like.
type NotificationService interface {
	Notify(ctx context.Context, userID uint, message, notificationType string) (*models.Notification, error)
	ListUnread(ctx context.Context, userID uint) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID uint, notificationID uint) error
}

type notificationService struct {
	notificationRepo db.NotificationRepository
	logger           *zap.Logger
}

func NewNotificationService(notificationRepo db.NotificationRepository, logger *zap.Logger) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		logger:           logger,
	}
}

func (s *notificationService) Notify(ctx context.Context, userID uint, message, notificationType string) (*models.Notification, error) {
	notification := &models.Notification{
		UserID:  userID,
		Message: message,
		Type:    notificationType,
	}
	if err := s.notificationRepo.CreateNotification(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}

func (s *notificationService) ListUnread(ctx context.Context, userID uint) ([]models.Notification, error) {
	return s.notificationRepo.GetUnreadNotifications(ctx, userID)
}

func (s *notificationService) MarkRead(ctx context.Context, userID uint, notificationID uint) error {
	return s.notificationRepo.MarkNotificationAsRead(ctx, userID, notificationID)
}

// notifyBestEffort sends a notification attached to a state change that has
// already happened. Failures are logged and dropped.
func notifyBestEffort(ctx context.Context, notifications NotificationService, logger *zap.Logger, userID uint, message, notificationType string) {
	if _, err := notifications.Notify(ctx, userID, message, notificationType); err != nil {
		logger.Error("failed to create notification",
			zap.Uint("user_id", userID),
			zap.String("type", notificationType),
			zap.Error(err))
	}
}
