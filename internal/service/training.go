package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sportsclubhq/clubsync/internal/domain"
	"github.com/sportsclubhq/clubsync/internal/repository"
)

var (
	ErrGoalNotFound    = repository.ErrGoalNotFound
	ErrGoalAlreadyDone = repository.ErrGoalAlreadyDone
)

type TrainingRepository interface {
	CreateAttendance(ctx context.Context, rec domain.AttendanceRecord, event *domain.Event, notifications []domain.Notification) (domain.AttendanceRecord, []domain.Notification, error)
	CreateTestResult(ctx context.Context, result domain.TestResult, event *domain.Event, notifications []domain.Notification) (domain.TestResult, []domain.Notification, error)
	CreateGoal(ctx context.Context, goal domain.TrainingGoal) (domain.TrainingGoal, error)
	FindGoalByID(ctx context.Context, id uint) (domain.TrainingGoal, error)
	CompleteGoal(ctx context.Context, id uint, completedAt time.Time, event *domain.Event, notifications []domain.Notification) (domain.TrainingGoal, []domain.Notification, error)
}

type Authorizer interface {
	Authorize(ctx context.Context, principal domain.User, action domain.Action, resource domain.Resource) (domain.Decision, error)
}

// Dispatcher plans the fan-out before the mutation commits and delivers the
// committed records afterwards.
type Dispatcher interface {
	Plan(ctx context.Context, event domain.Event) (FanOutPlan, error)
	Send(ctx context.Context, plan FanOutPlan, created []domain.Notification)
}

type UserDirectory interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
}

// TrainingService owns the attendance, test-result and goal mutations that
// feed the notification engine.
type TrainingService struct {
	repo       TrainingRepository
	users      UserDirectory
	policy     Authorizer
	dispatcher Dispatcher
}

func NewTrainingService(repo TrainingRepository, users UserDirectory, policy Authorizer, dispatcher Dispatcher) *TrainingService {
	return &TrainingService{
		repo:       repo,
		users:      users,
		policy:     policy,
		dispatcher: dispatcher,
	}
}

// RecordAttendance writes an attendance entry. Absent/late entries emit an
// attendance_absence event whose pending notification records are inserted
// in the same transaction; delivery runs after commit.
func (s *TrainingService) RecordAttendance(ctx context.Context, principal domain.User, rec domain.AttendanceRecord) (domain.AttendanceRecord, error) {
	athlete, err := s.athlete(ctx, rec.AthleteID)
	if err != nil {
		return domain.AttendanceRecord{}, err
	}
	rec.ClubID = athlete.ClubID
	rec.CoachID = principal.ID

	if err := s.authorize(ctx, principal, domain.ActionCreate, domain.Resource{
		Type:    domain.ResourceAttendance,
		OwnerID: athlete.ID,
		ClubID:  athlete.ClubID,
	}); err != nil {
		return domain.AttendanceRecord{}, err
	}

	var event *domain.Event
	var plan FanOutPlan
	if rec.Status == domain.AttendanceAbsent || rec.Status == domain.AttendanceLate {
		e := domain.NewEvent(domain.EventAttendanceAbsence, athlete.ID, athlete.ClubID, domain.AbsencePayload{
			SessionName: rec.SessionName,
			SessionDate: rec.SessionDate,
			Status:      string(rec.Status),
		})
		event = &e

		plan, err = s.dispatcher.Plan(ctx, e)
		if err != nil {
			return domain.AttendanceRecord{}, fmt.Errorf("s.dispatcher.Plan -> %w", err)
		}
	}

	created, pending, err := s.repo.CreateAttendance(ctx, rec, event, plan.Notifications)
	if err != nil {
		return domain.AttendanceRecord{}, fmt.Errorf("s.repo.CreateAttendance -> %w", err)
	}

	s.dispatcher.Send(ctx, plan, pending)

	return created, nil
}

// RecordTestResult writes a performance test result and emits
// performance_recorded.
func (s *TrainingService) RecordTestResult(ctx context.Context, principal domain.User, result domain.TestResult) (domain.TestResult, error) {
	athlete, err := s.athlete(ctx, result.AthleteID)
	if err != nil {
		return domain.TestResult{}, err
	}
	result.ClubID = athlete.ClubID
	result.CoachID = principal.ID
	if result.RecordedAt.IsZero() {
		result.RecordedAt = time.Now().UTC()
	}

	if err := s.authorize(ctx, principal, domain.ActionCreate, domain.Resource{
		Type:    domain.ResourcePerformance,
		OwnerID: athlete.ID,
		ClubID:  athlete.ClubID,
	}); err != nil {
		return domain.TestResult{}, err
	}

	event := domain.NewEvent(domain.EventPerformanceRecorded, athlete.ID, athlete.ClubID, domain.PerformancePayload{
		TestName: result.TestName,
		Value:    result.Value,
		Unit:     result.Unit,
	})

	plan, err := s.dispatcher.Plan(ctx, event)
	if err != nil {
		return domain.TestResult{}, fmt.Errorf("s.dispatcher.Plan -> %w", err)
	}

	created, pending, err := s.repo.CreateTestResult(ctx, result, &event, plan.Notifications)
	if err != nil {
		return domain.TestResult{}, fmt.Errorf("s.repo.CreateTestResult -> %w", err)
	}

	s.dispatcher.Send(ctx, plan, pending)

	return created, nil
}

// CreateGoal registers a training goal for an athlete. No event: goals only
// notify on completion.
func (s *TrainingService) CreateGoal(ctx context.Context, principal domain.User, goal domain.TrainingGoal) (domain.TrainingGoal, error) {
	athlete, err := s.athlete(ctx, goal.AthleteID)
	if err != nil {
		return domain.TrainingGoal{}, err
	}
	goal.ClubID = athlete.ClubID

	if err := s.authorize(ctx, principal, domain.ActionCreate, domain.Resource{
		Type:    domain.ResourceGoal,
		OwnerID: athlete.ID,
		ClubID:  athlete.ClubID,
	}); err != nil {
		return domain.TrainingGoal{}, err
	}

	created, err := s.repo.CreateGoal(ctx, goal)
	if err != nil {
		return domain.TrainingGoal{}, fmt.Errorf("s.repo.CreateGoal -> %w", err)
	}

	return created, nil
}

// CompleteGoal marks a goal done and emits goal_completed.
func (s *TrainingService) CompleteGoal(ctx context.Context, principal domain.User, goalID uint) (domain.TrainingGoal, error) {
	goal, err := s.repo.FindGoalByID(ctx, goalID)
	if err != nil {
		return domain.TrainingGoal{}, fmt.Errorf("s.repo.FindGoalByID -> %w", err)
	}

	if err := s.authorize(ctx, principal, domain.ActionUpdate, domain.Resource{
		Type:    domain.ResourceGoal,
		OwnerID: goal.AthleteID,
		ClubID:  goal.ClubID,
	}); err != nil {
		return domain.TrainingGoal{}, err
	}

	event := domain.NewEvent(domain.EventGoalCompleted, goal.AthleteID, goal.ClubID, domain.GoalCompletedPayload{
		GoalTitle: goal.Title,
	})

	plan, err := s.dispatcher.Plan(ctx, event)
	if err != nil {
		return domain.TrainingGoal{}, fmt.Errorf("s.dispatcher.Plan -> %w", err)
	}

	completed, pending, err := s.repo.CompleteGoal(ctx, goalID, time.Now().UTC(), &event, plan.Notifications)
	if err != nil {
		return domain.TrainingGoal{}, fmt.Errorf("s.repo.CompleteGoal -> %w", err)
	}

	s.dispatcher.Send(ctx, plan, pending)

	return completed, nil
}

func (s *TrainingService) athlete(ctx context.Context, athleteID uint) (domain.User, error) {
	athlete, err := s.users.FindByID(ctx, athleteID)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.users.FindByID -> %w", err)
	}
	if athlete.Role != domain.RoleAthlete {
		return domain.User{}, ErrAthleteNotFound
	}

	return athlete, nil
}

func (s *TrainingService) authorize(ctx context.Context, principal domain.User, action domain.Action, resource domain.Resource) error {
	decision, err := s.policy.Authorize(ctx, principal, action, resource)
	if err != nil {
		return fmt.Errorf("s.policy.Authorize -> %w", err)
	}
	if !decision.Allowed {
		return &DeniedError{Reason: decision.Reason}
	}

	return nil
}
