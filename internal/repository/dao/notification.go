package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotificationNotFound = errors.New("notification not found")

type Notification struct {
	ID uint `gorm:"primaryKey"`

	ConnectionID uint   `gorm:"not null;uniqueIndex:ux_notifications_connection_event"`
	EventID      string `gorm:"not null;type:uuid;uniqueIndex:ux_notifications_connection_event"`
	AthleteID    uint   `gorm:"index"`

	Category string `gorm:"not null"`
	Title    string `gorm:"not null"`
	Message  string `gorm:"not null"`
	Data     []byte `gorm:"type:jsonb"`

	Status    string `gorm:"not null;default:'pending';index"`
	SentAt    *time.Time
	OpenedAt  *time.Time
	ClickedAt *time.Time

	CreatedAt time.Time `gorm:"not null"`
}

type NotificationDAO struct {
	db *gorm.DB
}

func NewNotificationDAO(db *gorm.DB) *NotificationDAO {
	return &NotificationDAO{
		db: db,
	}
}

// insertNotifications writes pending records inside the caller's
// transaction, one row at a time so conflicts on (connection_id, event_id)
// can be skipped without aborting it. Re-emitting an event never duplicates
// a record. Returns the rows actually inserted.
func insertNotifications(tx *gorm.DB, notifications []Notification) ([]Notification, error) {
	if len(notifications) == 0 {
		return nil, nil
	}

	inserted := make([]Notification, 0, len(notifications))
	for i := range notifications {
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "connection_id"}, {Name: "event_id"}},
			DoNothing: true,
		}).Create(&notifications[i])
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			// This connection already holds a record for the event.
			continue
		}

		inserted = append(inserted, notifications[i])
	}

	return inserted, nil
}

func (d *NotificationDAO) UpdateStatus(ctx context.Context, id uint, status string, sentAt *time.Time) error {
	updates := map[string]interface{}{"status": status}
	if sentAt != nil {
		updates["sent_at"] = *sentAt
	}

	result := d.db.WithContext(ctx).Model(&Notification{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}

	return nil
}

func (d *NotificationDAO) FindByConnectionIDs(ctx context.Context, connectionIDs []uint) ([]Notification, error) {
	var notifications []Notification

	result := d.db.WithContext(ctx).
		Where("connection_id IN ?", connectionIDs).
		Order("created_at desc").
		Find(&notifications)
	if result.Error != nil {
		return nil, result.Error
	}

	return notifications, nil
}

// FindFailed returns failed deliveries for the operator queue, oldest first.
func (d *NotificationDAO) FindFailed(ctx context.Context) ([]Notification, error) {
	var notifications []Notification

	result := d.db.WithContext(ctx).
		Where("status = ?", "failed").
		Order("created_at asc").
		Find(&notifications)
	if result.Error != nil {
		return nil, result.Error
	}

	return notifications, nil
}
