package db

import (
	"context"

	"github.com/pkg/errors"
	"github.com/techagentng/aquawatch/models"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
	GetUnreadNotifications(ctx context.Context, userID uint) ([]models.Notification, error)
	MarkNotificationAsRead(ctx context.Context, userID uint, notificationID uint) error
}

type notificationRepo struct {
	DB *gorm.DB
}

func NewNotificationRepo(db *GormDB) NotificationRepository {
	return &notificationRepo{db.DB}
}

func (n *notificationRepo) CreateNotification(ctx context.Context, notification *models.Notification) error {
	notification.IsRead = false
	if err := n.DB.WithContext(ctx).Create(notification).Error; err != nil {
		return errors.Wrap(err, "could not create notification")
	}
	return nil
}

func (n *notificationRepo) GetUnreadNotifications(ctx context.Context, userID uint) ([]models.Notification, error) {
	notifications := []models.Notification{}
	err := n.DB.WithContext(ctx).
		Where("user_id = ? AND is_read = ?", userID, false).
		Order("created_at DESC, id DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not fetch unread notifications")
	}
	return notifications, nil
}

// MarkNotificationAsRead flags one of the user's notifications as read.
// Marking an already read notification is a no-op.
func (n *notificationRepo) MarkNotificationAsRead(ctx context.Context, userID uint, notificationID uint) error {
	var notification models.Notification
	err := n.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		First(&notification).Error
	if err != nil {
		return notFound(err, "could not fetch notification")
	}
	if notification.IsRead {
		return nil
	}
	if err := n.DB.WithContext(ctx).Model(&notification).Update("is_read", true).Error; err != nil {
		return errors.Wrap(err, "could not mark notification as read")
	}
	return nil
}
