package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sportsclubhq/clubsync/internal/domain"
)

type NotificationRepository interface {
	FindByConnectionIDs(ctx context.Context, connectionIDs []uint) ([]domain.Notification, error)
	FindFailed(ctx context.Context) ([]domain.Notification, error)
}

type EventRepository interface {
	FindSince(ctx context.Context, since time.Time) ([]domain.Event, error)
}

type ConnectionLister interface {
	ListForParent(ctx context.Context, parentUserID uint) ([]domain.ParentConnection, error)
}

// NotificationService is the read side: a parent's own feed, the operator's
// failed-delivery queue and the digest batcher's event window.
type NotificationService struct {
	notifications NotificationRepository
	events        EventRepository
	connections   ConnectionLister
	policy        Authorizer
}

func NewNotificationService(notifications NotificationRepository, events EventRepository, connections ConnectionLister, policy Authorizer) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		events:        events,
		connections:   connections,
		policy:        policy,
	}
}

// ListForParent returns the notifications delivered through any of the
// parent's connections, newest first.
func (s *NotificationService) ListForParent(ctx context.Context, principal domain.User) ([]domain.Notification, error) {
	if err := s.authorize(ctx, principal, domain.ActionRead, domain.Resource{
		Type:    domain.ResourceNotification,
		OwnerID: principal.ID,
	}); err != nil {
		return nil, err
	}

	conns, err := s.connections.ListForParent(ctx, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("s.connections.ListForParent -> %w", err)
	}
	if len(conns) == 0 {
		return []domain.Notification{}, nil
	}

	ids := make([]uint, 0, len(conns))
	for _, c := range conns {
		ids = append(ids, c.ID)
	}

	notifications, err := s.notifications.FindByConnectionIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("s.notifications.FindByConnectionIDs -> %w", err)
	}

	return notifications, nil
}

// ListFailed is the operator queue: failed deliveries, oldest first.
// Admin only.
func (s *NotificationService) ListFailed(ctx context.Context, principal domain.User) ([]domain.Notification, error) {
	if err := s.authorize(ctx, principal, domain.ActionRead, domain.Resource{
		Type: domain.ResourceNotification,
	}); err != nil {
		return nil, err
	}

	failed, err := s.notifications.FindFailed(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.notifications.FindFailed -> %w", err)
	}

	return failed, nil
}

// EventsSince exposes the durable event log to the external digest batcher:
// at least every event recorded after its last run. Admin only.
func (s *NotificationService) EventsSince(ctx context.Context, principal domain.User, since time.Time) ([]domain.Event, error) {
	if err := s.authorize(ctx, principal, domain.ActionRead, domain.Resource{
		Type: domain.ResourceNotification,
	}); err != nil {
		return nil, err
	}

	events, err := s.events.FindSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("s.events.FindSince -> %w", err)
	}

	return events, nil
}

func (s *NotificationService) authorize(ctx context.Context, principal domain.User, action domain.Action, resource domain.Resource) error {
	decision, err := s.policy.Authorize(ctx, principal, action, resource)
	if err != nil {
		return fmt.Errorf("s.policy.Authorize -> %w", err)
	}
	if !decision.Allowed {
		return &DeniedError{Reason: decision.Reason}
	}

	return nil
}
