package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrGoalNotFound       = errors.New("training goal not found")
	ErrGoalAlreadyDone    = errors.New("training goal already completed")
)

type AttendanceRecord struct {
	ID uint `gorm:"primaryKey"`

	AthleteID   uint      `gorm:"not null;index"`
	ClubID      uint      `gorm:"not null;index"`
	CoachID     uint      `gorm:"not null"`
	SessionName string    `gorm:"not null"`
	SessionDate time.Time `gorm:"not null"`
	Status      string    `gorm:"not null"` // "present", "absent" or "late"
	Note        string

	CreatedAt time.Time `gorm:"not null"`
}

type TestResult struct {
	ID uint `gorm:"primaryKey"`

	AthleteID uint    `gorm:"not null;index"`
	ClubID    uint    `gorm:"not null;index"`
	CoachID   uint    `gorm:"not null"`
	TestName  string  `gorm:"not null"`
	Value     float64 `gorm:"not null"`
	Unit      string  `gorm:"not null"`

	RecordedAt time.Time `gorm:"not null"`
}

type TrainingGoal struct {
	ID uint `gorm:"primaryKey"`

	AthleteID   uint   `gorm:"not null;index"`
	ClubID      uint   `gorm:"not null;index"`
	Title       string `gorm:"not null"`
	Completed   bool   `gorm:"not null;default:false"`
	CompletedAt *time.Time

	CreatedAt time.Time `gorm:"not null"`
}

type TrainingDAO struct {
	db *gorm.DB
}

func NewTrainingDAO(db *gorm.DB) *TrainingDAO {
	return &TrainingDAO{
		db: db,
	}
}

// InsertAttendance writes the attendance record and, when the entry warrants
// a fan-out (absent/late), its domain event and pending notification records
// in the same transaction.
func (d *TrainingDAO) InsertAttendance(ctx context.Context, rec AttendanceRecord, event *Event, notifications []Notification) (AttendanceRecord, []Notification, error) {
	var inserted []Notification

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
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
		return AttendanceRecord{}, nil, err
	}

	return rec, inserted, nil
}

func (d *TrainingDAO) InsertTestResult(ctx context.Context, result TestResult, event *Event, notifications []Notification) (TestResult, []Notification, error) {
	var inserted []Notification

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&result).Error; err != nil {
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
		return TestResult{}, nil, err
	}

	return result, inserted, nil
}

func (d *TrainingDAO) InsertGoal(ctx context.Context, goal TrainingGoal) (TrainingGoal, error) {
	result := d.db.WithContext(ctx).Create(&goal)
	if result.Error != nil {
		return TrainingGoal{}, result.Error
	}

	return goal, nil
}

func (d *TrainingDAO) FindGoalByID(ctx context.Context, id uint) (TrainingGoal, error) {
	var goal TrainingGoal

	result := d.db.WithContext(ctx).First(&goal, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return TrainingGoal{}, ErrGoalNotFound
		}

		return TrainingGoal{}, result.Error
	}

	return goal, nil
}

// CompleteGoal flips the goal to completed and records the event and its
// pending notifications atomically. Completing an already-completed goal is
// a conflict, not a second event.
func (d *TrainingDAO) CompleteGoal(ctx context.Context, id uint, completedAt time.Time, event *Event, notifications []Notification) (TrainingGoal, []Notification, error) {
	var goal TrainingGoal
	var inserted []Notification

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&goal, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGoalNotFound
			}

			return err
		}
		if goal.Completed {
			return ErrGoalAlreadyDone
		}

		goal.Completed = true
		goal.CompletedAt = &completedAt
		if err := tx.Save(&goal).Error; err != nil {
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
		return TrainingGoal{}, nil, err
	}

	return goal, inserted, nil
}
