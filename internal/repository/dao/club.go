package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrLeaveNotFound       = errors.New("leave request not found")
	ErrLeaveAlreadyDecided = errors.New("leave request already decided")
)

type LeaveRequest struct {
	ID uint `gorm:"primaryKey"`

	AthleteID uint      `gorm:"not null;index"`
	ClubID    uint      `gorm:"not null;index"`
	StartDate time.Time `gorm:"not null"`
	EndDate   time.Time `gorm:"not null"`
	Reason    string    `gorm:"not null"`

	Status    string `gorm:"not null;default:'pending'"` // "pending", "approved" or "rejected"
	DecidedBy uint
	DecidedAt *time.Time

	CreatedAt time.Time `gorm:"not null"`
}

type Announcement struct {
	ID uint `gorm:"primaryKey"`

	ClubID   uint   `gorm:"not null;index"`
	AuthorID uint   `gorm:"not null"`
	Title    string `gorm:"not null"`
	Body     string `gorm:"not null"`
	Priority string `gorm:"not null;default:'normal'"` // "low", "normal", "high" or "urgent"

	CreatedAt time.Time `gorm:"not null"`
}

type ClubDAO struct {
	db *gorm.DB
}

func NewClubDAO(db *gorm.DB) *ClubDAO {
	return &ClubDAO{
		db: db,
	}
}

func (d *ClubDAO) InsertLeaveRequest(ctx context.Context, leave LeaveRequest) (LeaveRequest, error) {
	result := d.db.WithContext(ctx).Create(&leave)
	if result.Error != nil {
		return LeaveRequest{}, result.Error
	}

	return leave, nil
}

func (d *ClubDAO) FindLeaveRequestByID(ctx context.Context, id uint) (LeaveRequest, error) {
	var leave LeaveRequest

	result := d.db.WithContext(ctx).First(&leave, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return LeaveRequest{}, ErrLeaveNotFound
		}

		return LeaveRequest{}, result.Error
	}

	return leave, nil
}

// DecideLeaveRequest records the decision, its domain event and the pending
// notifications atomically. A request can only be decided once.
func (d *ClubDAO) DecideLeaveRequest(ctx context.Context, id uint, status string, decidedBy uint, decidedAt time.Time, event *Event, notifications []Notification) (LeaveRequest, []Notification, error) {
	var leave LeaveRequest
	var inserted []Notification

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&leave, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLeaveNotFound
			}

			return err
		}
		if leave.Status != "pending" {
			return ErrLeaveAlreadyDecided
		}

		leave.Status = status
		leave.DecidedBy = decidedBy
		leave.DecidedAt = &decidedAt
		if err := tx.Save(&leave).Error; err != nil {
			return err
		}
		if event != nil {
			if err := tx.Create(event).Error; err != nil {
				return err
			}
		}

		var err error
		inserted, err = insertNotifications(tx, notifications)

		return err
	})
	if err != nil {
		return LeaveRequest{}, nil, err
	}

	return leave, inserted, nil
}

func (d *ClubDAO) InsertAnnouncement(ctx context.Context, a Announcement, event *Event, notifications []Notification) (Announcement, []Notification, error) {
	var inserted []Notification

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&a).Error; err != nil {
			return err
		}
		if event != nil {
			if err := tx.Create(event).Error; err != nil {
				return err
			}
		}

		var err error
		inserted, err = insertNotifications(tx, notifications)

		return err
	})
	if err != nil {
		return Announcement{}, nil, err
	}

	return a, inserted, nil
}
