package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportsclubhq/clubsync/internal/domain"
	"github.com/sportsclubhq/clubsync/internal/repository"
)

type fakeTrainingRepository struct {
	nextID    uint
	goals     map[uint]domain.TrainingGoal
	createErr error

	savedEvents        []*domain.Event
	savedNotifications []domain.Notification
}

func newFakeTrainingRepository() *fakeTrainingRepository {
	return &fakeTrainingRepository{
		nextID: 1,
		goals:  make(map[uint]domain.TrainingGoal),
	}
}

// withIDs mimics the insert assigning primary keys to the pending rows.
func withIDs(notifications []domain.Notification) []domain.Notification {
	out := make([]domain.Notification, len(notifications))
	copy(out, notifications)
	for i := range out {
		out[i].ID = uint(i + 1)
	}

	return out
}

func (f *fakeTrainingRepository) CreateAttendance(_ context.Context, rec domain.AttendanceRecord, event *domain.Event, notifications []domain.Notification) (domain.AttendanceRecord, []domain.Notification, error) {
	if f.createErr != nil {
		return domain.AttendanceRecord{}, nil, f.createErr
	}

	rec.ID = f.nextID
	f.nextID++
	f.savedEvents = append(f.savedEvents, event)
	f.savedNotifications = append(f.savedNotifications, notifications...)

	return rec, withIDs(notifications), nil
}

func (f *fakeTrainingRepository) CreateTestResult(_ context.Context, result domain.TestResult, event *domain.Event, notifications []domain.Notification) (domain.TestResult, []domain.Notification, error) {
	if f.createErr != nil {
		return domain.TestResult{}, nil, f.createErr
	}

	result.ID = f.nextID
	f.nextID++
	f.savedEvents = append(f.savedEvents, event)
	f.savedNotifications = append(f.savedNotifications, notifications...)

	return result, withIDs(notifications), nil
}

func (f *fakeTrainingRepository) CreateGoal(_ context.Context, goal domain.TrainingGoal) (domain.TrainingGoal, error) {
	goal.ID = f.nextID
	f.nextID++
	f.goals[goal.ID] = goal

	return goal, nil
}

func (f *fakeTrainingRepository) FindGoalByID(_ context.Context, id uint) (domain.TrainingGoal, error) {
	goal, ok := f.goals[id]
	if !ok {
		return domain.TrainingGoal{}, repository.ErrGoalNotFound
	}

	return goal, nil
}

func (f *fakeTrainingRepository) CompleteGoal(_ context.Context, id uint, completedAt time.Time, event *domain.Event, notifications []domain.Notification) (domain.TrainingGoal, []domain.Notification, error) {
	goal, ok := f.goals[id]
	if !ok {
		return domain.TrainingGoal{}, nil, repository.ErrGoalNotFound
	}
	if goal.Completed {
		return domain.TrainingGoal{}, nil, repository.ErrGoalAlreadyDone
	}

	goal.Completed = true
	goal.CompletedAt = &completedAt
	f.goals[id] = goal
	f.savedEvents = append(f.savedEvents, event)
	f.savedNotifications = append(f.savedNotifications, notifications...)

	return goal, withIDs(notifications), nil
}

type staticUserDirectory struct {
	users map[uint]domain.User
}

func (d staticUserDirectory) FindByID(_ context.Context, id uint) (domain.User, error) {
	user, ok := d.users[id]
	if !ok {
		return domain.User{}, repository.ErrUserNotFound
	}

	return user, nil
}

type recordingDispatcher struct {
	planned []domain.Event
	sent    []domain.Notification
}

func (d *recordingDispatcher) Plan(_ context.Context, event domain.Event) (FanOutPlan, error) {
	d.planned = append(d.planned, event)

	return FanOutPlan{Notifications: []domain.Notification{{
		ConnectionID: 1,
		EventID:      event.ID,
		Status:       domain.DeliveryPending,
	}}}, nil
}

func (d *recordingDispatcher) Send(_ context.Context, _ FanOutPlan, created []domain.Notification) {
	d.sent = append(d.sent, created...)
}

type allowAllPolicy struct{}

func (allowAllPolicy) Authorize(context.Context, domain.User, domain.Action, domain.Resource) (domain.Decision, error) {
	return domain.Allow(), nil
}

type denyAllPolicy struct{}

func (denyAllPolicy) Authorize(context.Context, domain.User, domain.Action, domain.Resource) (domain.Decision, error) {
	return domain.Deny("denied for testing"), nil
}

func trainingFixture(policy Authorizer) (*TrainingService, *fakeTrainingRepository, *recordingDispatcher) {
	repo := newFakeTrainingRepository()
	dispatcher := &recordingDispatcher{}
	users := staticUserDirectory{users: map[uint]domain.User{
		3: {ID: 3, Name: "Alex Moreau", Role: domain.RoleAthlete, ClubID: 10},
		9: {ID: 9, Name: "Sam Keita", Role: domain.RoleCoach, ClubID: 10},
	}}

	return NewTrainingService(repo, users, policy, dispatcher), repo, dispatcher
}

func TestTrainingService_RecordAttendance_AbsenceEmitsEvent(t *testing.T) {
	svc, repo, dispatcher := trainingFixture(allowAllPolicy{})
	coach := domain.User{ID: 9, Role: domain.RoleCoach, ClubID: 10}

	created, err := svc.RecordAttendance(context.Background(), coach, domain.AttendanceRecord{
		AthleteID:   3,
		SessionName: "U15 practice",
		SessionDate: time.Now().UTC(),
		Status:      domain.AttendanceAbsent,
	})

	require.NoError(t, err)
	assert.Equal(t, uint(10), created.ClubID)
	assert.Equal(t, uint(9), created.CoachID)

	// The event and the planned pending records reach the repository in one
	// call, so they share the record's transaction...
	require.Len(t, repo.savedEvents, 1)
	require.NotNil(t, repo.savedEvents[0])
	assert.Equal(t, domain.EventAttendanceAbsence, repo.savedEvents[0].Type)
	require.Len(t, dispatcher.planned, 1)
	assert.Equal(t, repo.savedEvents[0].ID, dispatcher.planned[0].ID)
	require.Len(t, repo.savedNotifications, 1)
	assert.Equal(t, repo.savedEvents[0].ID, repo.savedNotifications[0].EventID)

	// ...and are delivered only after it returns, with their assigned ids.
	require.Len(t, dispatcher.sent, 1)
	assert.NotZero(t, dispatcher.sent[0].ID)
}

func TestTrainingService_RecordAttendance_PresenceIsSilent(t *testing.T) {
	svc, repo, dispatcher := trainingFixture(allowAllPolicy{})
	coach := domain.User{ID: 9, Role: domain.RoleCoach, ClubID: 10}

	_, err := svc.RecordAttendance(context.Background(), coach, domain.AttendanceRecord{
		AthleteID:   3,
		SessionName: "U15 practice",
		SessionDate: time.Now().UTC(),
		Status:      domain.AttendancePresent,
	})

	require.NoError(t, err)
	require.Len(t, repo.savedEvents, 1)
	assert.Nil(t, repo.savedEvents[0])
	assert.Empty(t, repo.savedNotifications)
	assert.Empty(t, dispatcher.planned)
	assert.Empty(t, dispatcher.sent)
}

func TestTrainingService_RecordAttendance_WriteFailureSendsNothing(t *testing.T) {
	svc, repo, dispatcher := trainingFixture(allowAllPolicy{})
	repo.createErr = assert.AnError

	_, err := svc.RecordAttendance(context.Background(), domain.User{ID: 9, Role: domain.RoleCoach, ClubID: 10},
		domain.AttendanceRecord{
			AthleteID:   3,
			SessionName: "U15 practice",
			SessionDate: time.Now().UTC(),
			Status:      domain.AttendanceAbsent,
		})

	// The failed transaction surfaces; no delivery ran against rows that
	// were never committed.
	require.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, dispatcher.sent)
}

func TestTrainingService_RecordAttendance_DeniedPrincipal(t *testing.T) {
	svc, repo, _ := trainingFixture(denyAllPolicy{})

	_, err := svc.RecordAttendance(context.Background(), domain.User{ID: 9, Role: domain.RoleCoach, ClubID: 20},
		domain.AttendanceRecord{AthleteID: 3, Status: domain.AttendanceAbsent})

	var denied *DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Empty(t, repo.savedEvents)
}

func TestTrainingService_RecordAttendance_RejectsNonAthleteSubject(t *testing.T) {
	svc, _, _ := trainingFixture(allowAllPolicy{})

	_, err := svc.RecordAttendance(context.Background(), domain.User{ID: 9, Role: domain.RoleCoach, ClubID: 10},
		domain.AttendanceRecord{AthleteID: 9, Status: domain.AttendanceAbsent})

	assert.ErrorIs(t, err, ErrAthleteNotFound)
}

func TestTrainingService_GoalLifecycle(t *testing.T) {
	svc, repo, dispatcher := trainingFixture(allowAllPolicy{})
	coach := domain.User{ID: 9, Role: domain.RoleCoach, ClubID: 10}

	goal, err := svc.CreateGoal(context.Background(), coach, domain.TrainingGoal{
		AthleteID: 3,
		Title:     "10 pull-ups",
	})
	require.NoError(t, err)
	// Creation alone notifies nobody.
	assert.Empty(t, dispatcher.planned)

	completed, err := svc.CompleteGoal(context.Background(), coach, goal.ID)
	require.NoError(t, err)
	assert.True(t, completed.Completed)
	require.Len(t, dispatcher.planned, 1)
	assert.Equal(t, domain.EventGoalCompleted, dispatcher.planned[0].Type)
	require.Len(t, repo.savedEvents, 1)
	require.NotNil(t, repo.savedEvents[0])
	require.Len(t, dispatcher.sent, 1)

	_, err = svc.CompleteGoal(context.Background(), coach, goal.ID)
	assert.ErrorIs(t, err, ErrGoalAlreadyDone)
}
