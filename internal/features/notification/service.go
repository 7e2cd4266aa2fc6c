package notification

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationService interface {
	GetUserNotifications(ctx context.Context, recipient primitive.ObjectID, page, limit int64) ([]Notification, int64, error)
	GetUnreadCount(ctx context.Context, recipient primitive.ObjectID) (int64, error)
	MarkAsRead(ctx context.Context, id string, recipient primitive.ObjectID) error
	MarkAllAsRead(ctx context.Context, recipient primitive.ObjectID) error
	Delete(ctx context.Context, id string, recipient primitive.ObjectID) error
	DeleteAll(ctx context.Context, recipient primitive.ObjectID) error
}

type NotificationServiceImpl struct {
	repo NotificationRepository
}

func NewNotificationService(repo NotificationRepository) NotificationService {
	return &NotificationServiceImpl{
		repo: repo,
	}
}

func (s *NotificationServiceImpl) GetUserNotifications(ctx context.Context, recipient primitive.ObjectID, page, limit int64) ([]Notification, int64, error) {
	return s.repo.GetByRecipient(ctx, recipient, page, limit)
}

func (s *NotificationServiceImpl) GetUnreadCount(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	return s.repo.GetUnreadCount(ctx, recipient)
}

func (s *NotificationServiceImpl) MarkAsRead(ctx context.Context, id string, recipient primitive.ObjectID) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	return s.repo.MarkAsRead(ctx, objID, recipient)
}

func (s *NotificationServiceImpl) MarkAllAsRead(ctx context.Context, recipient primitive.ObjectID) error {
	return s.repo.MarkAllAsRead(ctx, recipient)
}

func (s *NotificationServiceImpl) Delete(ctx context.Context, id string, recipient primitive.ObjectID) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, objID, recipient)
}

func (s *NotificationServiceImpl) DeleteAll(ctx context.Context, recipient primitive.ObjectID) error {
	return s.repo.DeleteAll(ctx, recipient)
}
