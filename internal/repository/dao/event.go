package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrEventNotFound = errors.New("event not found")

type Event struct {
	ID string `gorm:"primaryKey;type:uuid"`

	Type      string `gorm:"not null;index"`
	AthleteID uint   `gorm:"index"` // zero for club-wide events
	ClubID    uint   `gorm:"not null;index"`
	Payload   []byte `gorm:"type:jsonb"`

	OccurredAt time.Time `gorm:"not null;index"`
}

func (Event) TableName() string {
	return "domain_events"
}

type EventDAO struct {
	db *gorm.DB
}

func NewEventDAO(db *gorm.DB) *EventDAO {
	return &EventDAO{
		db: db,
	}
}

func (d *EventDAO) Insert(ctx context.Context, event Event) (Event, error) {
	result := d.db.WithContext(ctx).Create(&event)
	if result.Error != nil {
		return Event{}, result.Error
	}

	return event, nil
}

func (d *EventDAO) FindByID(ctx context.Context, id string) (Event, error) {
	var event Event

	result := d.db.WithContext(ctx).First(&event, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}

		return Event{}, result.Error
	}

	return event, nil
}

// FindSince returns events recorded after the given time, oldest first. This
// is the read contract of the daily/weekly digest batcher.
func (d *EventDAO) FindSince(ctx context.Context, since time.Time) ([]Event, error) {
	var events []Event

	result := d.db.WithContext(ctx).
		Where("occurred_at > ?", since).
		Order("occurred_at asc").
		Find(&events)
	if result.Error != nil {
		return nil, result.Error
	}

	return events, nil
}
