package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sportsclubhq/clubsync/internal/domain"
	"github.com/sportsclubhq/clubsync/internal/repository/dao"
)

var ErrEventNotFound = dao.ErrEventNotFound

type EventDAO interface {
	Insert(ctx context.Context, event dao.Event) (dao.Event, error)
	FindByID(ctx context.Context, id string) (dao.Event, error)
	FindSince(ctx context.Context, since time.Time) ([]dao.Event, error)
}

type EventRepository struct {
	dao EventDAO
}

func NewEventRepository(dao EventDAO) *EventRepository {
	return &EventRepository{
		dao: dao,
	}
}

func (r *EventRepository) Create(ctx context.Context, event domain.Event) (domain.Event, error) {
	daoEvent, err := EventToDAO(event)
	if err != nil {
		return domain.Event{}, err
	}

	if _, err := r.dao.Insert(ctx, daoEvent); err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return event, nil
}

func (r *EventRepository) FindSince(ctx context.Context, since time.Time) ([]domain.Event, error) {
	found, err := r.dao.FindSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindSince -> %w", err)
	}

	events := make([]domain.Event, 0, len(found))
	for _, e := range found {
		event, err := daoToDomainEvent(e)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, nil
}

// EventToDAO marshals a domain event for storage. Exported because the
// event-source DAOs persist events inside their own transactions.
func EventToDAO(event domain.Event) (dao.Event, error) {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return dao.Event{}, fmt.Errorf("json.Marshal event payload -> %w", err)
	}

	return dao.Event{
		ID:         event.ID.String(),
		Type:       string(event.Type),
		AthleteID:  event.AthleteID,
		ClubID:     event.ClubID,
		Payload:    payload,
		OccurredAt: event.OccurredAt,
	}, nil
}

func daoToDomainEvent(e dao.Event) (domain.Event, error) {
	payload, err := domain.DecodePayload(domain.EventType(e.Type), e.Payload)
	if err != nil {
		return domain.Event{}, fmt.Errorf("domain.DecodePayload -> %w", err)
	}

	id, err := uuid.Parse(e.ID)
	if err != nil {
		return domain.Event{}, fmt.Errorf("uuid.Parse -> %w", err)
	}

	return domain.Event{
		ID:         id,
		Type:       domain.EventType(e.Type),
		AthleteID:  e.AthleteID,
		ClubID:     e.ClubID,
		Payload:    payload,
		OccurredAt: e.OccurredAt,
	}, nil
}
