package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sportsclubhq/clubsync/internal/domain"
	"github.com/sportsclubhq/clubsync/internal/repository/dao"
)

var ErrNotificationNotFound = dao.ErrNotificationNotFound

type NotificationDAO interface {
	UpdateStatus(ctx context.Context, id uint, status string, sentAt *time.Time) error
	FindByConnectionIDs(ctx context.Context, connectionIDs []uint) ([]dao.Notification, error)
	FindFailed(ctx context.Context) ([]dao.Notification, error)
}

type NotificationRepository struct {
	dao NotificationDAO
}

func NewNotificationRepository(dao NotificationDAO) *NotificationRepository {
	return &NotificationRepository{
		dao: dao,
	}
}

func (r *NotificationRepository) MarkSent(ctx context.Context, id uint, sentAt time.Time) error {
	if err := r.dao.UpdateStatus(ctx, id, string(domain.DeliverySent), &sentAt); err != nil {
		return fmt.Errorf("r.dao.UpdateStatus -> %w", err)
	}

	return nil
}

func (r *NotificationRepository) MarkFailed(ctx context.Context, id uint) error {
	if err := r.dao.UpdateStatus(ctx, id, string(domain.DeliveryFailed), nil); err != nil {
		return fmt.Errorf("r.dao.UpdateStatus -> %w", err)
	}

	return nil
}

func (r *NotificationRepository) FindByConnectionIDs(ctx context.Context, connectionIDs []uint) ([]domain.Notification, error) {
	found, err := r.dao.FindByConnectionIDs(ctx, connectionIDs)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByConnectionIDs -> %w", err)
	}

	return notificationsDAOToDomain(found), nil
}

func (r *NotificationRepository) FindFailed(ctx context.Context) ([]domain.Notification, error) {
	found, err := r.dao.FindFailed(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindFailed -> %w", err)
	}

	return notificationsDAOToDomain(found), nil
}

// notificationsToDAO maps planned pending records for insertion alongside a
// mutation. Shared by the training and club repositories.
func notificationsToDAO(notifications []domain.Notification) []dao.Notification {
	out := make([]dao.Notification, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, dao.Notification{
			ConnectionID: n.ConnectionID,
			EventID:      n.EventID.String(),
			AthleteID:    n.AthleteID,
			Category:     string(n.Category),
			Title:        n.Title,
			Message:      n.Message,
			Data:         n.Data,
			Status:       string(n.Status),
		})
	}

	return out
}

func notificationDAOToDomain(n dao.Notification) domain.Notification {
	eventID, _ := uuid.Parse(n.EventID)

	return domain.Notification{
		ID:           n.ID,
		ConnectionID: n.ConnectionID,
		EventID:      eventID,
		AthleteID:    n.AthleteID,
		Category:     domain.Category(n.Category),
		Title:        n.Title,
		Message:      n.Message,
		Data:         n.Data,
		Status:       domain.DeliveryStatus(n.Status),
		SentAt:       n.SentAt,
		OpenedAt:     n.OpenedAt,
		ClickedAt:    n.ClickedAt,
		CreatedAt:    n.CreatedAt,
	}
}

func notificationsDAOToDomain(notifications []dao.Notification) []domain.Notification {
	out := make([]domain.Notification, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, notificationDAOToDomain(n))
	}

	return out
}
