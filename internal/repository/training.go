package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/sportsclubhq/clubsync/internal/domain"
	"github.com/sportsclubhq/clubsync/internal/repository/dao"
)

var (
	ErrGoalNotFound    = dao.ErrGoalNotFound
	ErrGoalAlreadyDone = dao.ErrGoalAlreadyDone
)

type TrainingDAO interface {
	InsertAttendance(ctx context.Context, rec dao.AttendanceRecord, event *dao.Event, notifications []dao.Notification) (dao.AttendanceRecord, []dao.Notification, error)
	InsertTestResult(ctx context.Context, result dao.TestResult, event *dao.Event, notifications []dao.Notification) (dao.TestResult, []dao.Notification, error)
	InsertGoal(ctx context.Context, goal dao.TrainingGoal) (dao.TrainingGoal, error)
	FindGoalByID(ctx context.Context, id uint) (dao.TrainingGoal, error)
	CompleteGoal(ctx context.Context, id uint, completedAt time.Time, event *dao.Event, notifications []dao.Notification) (dao.TrainingGoal, []dao.Notification, error)
}

type TrainingRepository struct {
	dao TrainingDAO
}

func NewTrainingRepository(dao TrainingDAO) *TrainingRepository {
	return &TrainingRepository{
		dao: dao,
	}
}

// CreateAttendance persists the record and, when event is non-nil, the domain
// event and the pending notification records in the same transaction.
func (r *TrainingRepository) CreateAttendance(ctx context.Context, rec domain.AttendanceRecord, event *domain.Event, notifications []domain.Notification) (domain.AttendanceRecord, []domain.Notification, error) {
	daoEvent, err := optionalEventToDAO(event)
	if err != nil {
		return domain.AttendanceRecord{}, nil, err
	}

	created, inserted, err := r.dao.InsertAttendance(ctx, dao.AttendanceRecord{
		AthleteID:   rec.AthleteID,
		ClubID:      rec.ClubID,
		CoachID:     rec.CoachID,
		SessionName: rec.SessionName,
		SessionDate: rec.SessionDate,
		Status:      string(rec.Status),
		Note:        rec.Note,
	}, daoEvent, notificationsToDAO(notifications))
	if err != nil {
		return domain.AttendanceRecord{}, nil, fmt.Errorf("r.dao.InsertAttendance -> %w", err)
	}

	return r.attendanceDAOToDomain(created), notificationsDAOToDomain(inserted), nil
}

func (r *TrainingRepository) CreateTestResult(ctx context.Context, result domain.TestResult, event *domain.Event, notifications []domain.Notification) (domain.TestResult, []domain.Notification, error) {
	daoEvent, err := optionalEventToDAO(event)
	if err != nil {
		return domain.TestResult{}, nil, err
	}

	created, inserted, err := r.dao.InsertTestResult(ctx, dao.TestResult{
		AthleteID:  result.AthleteID,
		ClubID:     result.ClubID,
		CoachID:    result.CoachID,
		TestName:   result.TestName,
		Value:      result.Value,
		Unit:       result.Unit,
		RecordedAt: result.RecordedAt,
	}, daoEvent, notificationsToDAO(notifications))
	if err != nil {
		return domain.TestResult{}, nil, fmt.Errorf("r.dao.InsertTestResult -> %w", err)
	}

	return r.testResultDAOToDomain(created), notificationsDAOToDomain(inserted), nil
}

func (r *TrainingRepository) CreateGoal(ctx context.Context, goal domain.TrainingGoal) (domain.TrainingGoal, error) {
	created, err := r.dao.InsertGoal(ctx, dao.TrainingGoal{
		AthleteID: goal.AthleteID,
		ClubID:    goal.ClubID,
		Title:     goal.Title,
	})
	if err != nil {
		return domain.TrainingGoal{}, fmt.Errorf("r.dao.InsertGoal -> %w", err)
	}

	return r.goalDAOToDomain(created), nil
}

func (r *TrainingRepository) FindGoalByID(ctx context.Context, id uint) (domain.TrainingGoal, error) {
	found, err := r.dao.FindGoalByID(ctx, id)
	if err != nil {
		return domain.TrainingGoal{}, fmt.Errorf("r.dao.FindGoalByID -> %w", err)
	}

	return r.goalDAOToDomain(found), nil
}

func (r *TrainingRepository) CompleteGoal(ctx context.Context, id uint, completedAt time.Time, event *domain.Event, notifications []domain.Notification) (domain.TrainingGoal, []domain.Notification, error) {
	daoEvent, err := optionalEventToDAO(event)
	if err != nil {
		return domain.TrainingGoal{}, nil, err
	}

	completed, inserted, err := r.dao.CompleteGoal(ctx, id, completedAt, daoEvent, notificationsToDAO(notifications))
	if err != nil {
		return domain.TrainingGoal{}, nil, fmt.Errorf("r.dao.CompleteGoal -> %w", err)
	}

	return r.goalDAOToDomain(completed), notificationsDAOToDomain(inserted), nil
}

func (r *TrainingRepository) attendanceDAOToDomain(rec dao.AttendanceRecord) domain.AttendanceRecord {
	return domain.AttendanceRecord{
		ID:          rec.ID,
		AthleteID:   rec.AthleteID,
		ClubID:      rec.ClubID,
		CoachID:     rec.CoachID,
		SessionName: rec.SessionName,
		SessionDate: rec.SessionDate,
		Status:      domain.AttendanceStatus(rec.Status),
		Note:        rec.Note,
		CreatedAt:   rec.CreatedAt,
	}
}

func (r *TrainingRepository) testResultDAOToDomain(result dao.TestResult) domain.TestResult {
	return domain.TestResult{
		ID:         result.ID,
		AthleteID:  result.AthleteID,
		ClubID:     result.ClubID,
		CoachID:    result.CoachID,
		TestName:   result.TestName,
		Value:      result.Value,
		Unit:       result.Unit,
		RecordedAt: result.RecordedAt,
	}
}

func (r *TrainingRepository) goalDAOToDomain(goal dao.TrainingGoal) domain.TrainingGoal {
	return domain.TrainingGoal{
		ID:          goal.ID,
		AthleteID:   goal.AthleteID,
		ClubID:      goal.ClubID,
		Title:       goal.Title,
		Completed:   goal.Completed,
		CompletedAt: goal.CompletedAt,
		CreatedAt:   goal.CreatedAt,
	}
}

func optionalEventToDAO(event *domain.Event) (*dao.Event, error) {
	if event == nil {
		return nil, nil
	}

	daoEvent, err := EventToDAO(*event)
	if err != nil {
		return nil, err
	}

	return &daoEvent, nil
}
