package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportsclubhq/clubsync/internal/domain"
	"github.com/sportsclubhq/clubsync/internal/repository"
)

type staticFlagGate struct {
	enabled bool
}

func (g staticFlagGate) IsEnabled(context.Context, string, uint) (bool, error) {
	return g.enabled, nil
}

type staticSubscriberSource struct {
	perAthlete map[uint][]domain.ParentConnection
	perClub    map[uint][]domain.ParentConnection
}

func (s staticSubscriberSource) ResolveSubscribers(_ context.Context, athleteID uint, _ domain.Category) ([]domain.ParentConnection, error) {
	return s.perAthlete[athleteID], nil
}

func (s staticSubscriberSource) ResolveClubSubscribers(_ context.Context, clubID uint, _ domain.Category) ([]domain.ParentConnection, error) {
	return s.perClub[clubID], nil
}

type recordingNotificationWriter struct {
	sent   []uint
	failed []uint
}

func (w *recordingNotificationWriter) MarkSent(_ context.Context, id uint, _ time.Time) error {
	w.sent = append(w.sent, id)

	return nil
}

func (w *recordingNotificationWriter) MarkFailed(_ context.Context, id uint) error {
	w.failed = append(w.failed, id)

	return nil
}

type staticAthleteDirectory struct {
	users map[uint]domain.User
}

func (d staticAthleteDirectory) FindByID(_ context.Context, id uint) (domain.User, error) {
	user, ok := d.users[id]
	if !ok {
		return domain.User{}, repository.ErrUserNotFound
	}

	return user, nil
}

type recordingTransport struct {
	sends []string
	err   error
}

func (t *recordingTransport) Send(_ context.Context, recipient, title, _ string) error {
	if t.err != nil {
		return t.err
	}
	t.sends = append(t.sends, recipient+":"+title)

	return nil
}

func connectionFixture(id, athleteID uint, freq domain.Frequency) domain.ParentConnection {
	return domain.ParentConnection{
		ID:          id,
		AthleteID:   athleteID,
		ParentEmail: "parent@example.com",
		Verified:    true,
		Active:      true,
		Preferences: allPreferences(),
		Frequency:   freq,
	}
}

func newDispatcherFixture(gate bool, subs staticSubscriberSource, sender *recordingTransport) (*EventDispatcher, *recordingNotificationWriter) {
	writer := &recordingNotificationWriter{}
	users := staticAthleteDirectory{users: map[uint]domain.User{
		3: {ID: 3, Name: "Alex Moreau", Role: domain.RoleAthlete, ClubID: 10},
	}}

	return NewEventDispatcher(staticFlagGate{enabled: gate}, subs, writer, users, sender, time.Second), writer
}

// persisted stands in for the repository: it assigns ids the way the
// mutation transaction would on insert.
func persisted(plan FanOutPlan) []domain.Notification {
	created := make([]domain.Notification, len(plan.Notifications))
	copy(created, plan.Notifications)
	for i := range created {
		created[i].ID = uint(i + 1)
	}

	return created
}

func TestEventDispatcher_PlanAndSend_ImmediateSubscribers(t *testing.T) {
	sender := &recordingTransport{}
	dispatcher, writer := newDispatcherFixture(true, staticSubscriberSource{
		perAthlete: map[uint][]domain.ParentConnection{
			3: {
				connectionFixture(1, 3, domain.FrequencyImmediate),
				connectionFixture(2, 3, domain.FrequencyDaily), // batcher's job, not ours
			},
		},
	}, sender)

	event := domain.NewEvent(domain.EventAttendanceAbsence, 3, 10, domain.AbsencePayload{
		SessionName: "U15 practice",
		SessionDate: time.Date(2026, 8, 20, 18, 0, 0, 0, time.UTC),
		Status:      "absent",
	})

	plan, err := dispatcher.Plan(context.Background(), event)
	require.NoError(t, err)
	require.Len(t, plan.Notifications, 1)
	assert.Equal(t, uint(1), plan.Notifications[0].ConnectionID)
	assert.Equal(t, event.ID, plan.Notifications[0].EventID)
	assert.Equal(t, domain.CategoryAttendance, plan.Notifications[0].Category)
	assert.Contains(t, plan.Notifications[0].Title, "Alex Moreau")
	assert.Equal(t, domain.DeliveryPending, plan.Notifications[0].Status)

	created := persisted(plan)
	dispatcher.Send(context.Background(), plan, created)

	// The caller's slice reflects the settled status, not a stale copy.
	assert.Equal(t, domain.DeliverySent, created[0].Status)
	require.NotNil(t, created[0].SentAt)
	assert.Equal(t, []uint{1}, writer.sent)
	require.Len(t, sender.sends, 1)
	assert.Contains(t, sender.sends[0], "parent@example.com")
}

func TestEventDispatcher_Plan_GateClosed(t *testing.T) {
	sender := &recordingTransport{}
	dispatcher, _ := newDispatcherFixture(false, staticSubscriberSource{
		perAthlete: map[uint][]domain.ParentConnection{
			3: {connectionFixture(1, 3, domain.FrequencyImmediate)},
		},
	}, sender)

	plan, err := dispatcher.Plan(context.Background(), domain.NewEvent(
		domain.EventGoalCompleted, 3, 10, domain.GoalCompletedPayload{GoalTitle: "10 pull-ups"}))

	require.NoError(t, err)
	assert.Empty(t, plan.Notifications)
	assert.Empty(t, sender.sends)
}

func TestEventDispatcher_Plan_AnnouncementPriorityThrottle(t *testing.T) {
	club := staticSubscriberSource{
		perClub: map[uint][]domain.ParentConnection{
			10: {connectionFixture(1, 3, domain.FrequencyImmediate)},
		},
	}

	for _, priority := range []domain.Priority{domain.PriorityLow, domain.PriorityNormal} {
		sender := &recordingTransport{}
		dispatcher, _ := newDispatcherFixture(true, club, sender)

		plan, err := dispatcher.Plan(context.Background(), domain.NewEvent(
			domain.EventAnnouncementPosted, 0, 10, domain.AnnouncementPayload{
				Title:    "Bake sale",
				Body:     "Cookies on Saturday.",
				Priority: priority,
			}))

		require.NoError(t, err)
		assert.Empty(t, plan.Notifications, "priority %v must not fan out", priority)
	}

	sender := &recordingTransport{}
	dispatcher, writer := newDispatcherFixture(true, club, sender)

	plan, err := dispatcher.Plan(context.Background(), domain.NewEvent(
		domain.EventAnnouncementPosted, 0, 10, domain.AnnouncementPayload{
			Title:    "Gym flooded",
			Body:     "All sessions cancelled this week.",
			Priority: domain.PriorityUrgent,
		}))

	require.NoError(t, err)
	require.Len(t, plan.Notifications, 1)
	// Club-wide record points at the subscriber's own athlete.
	assert.Equal(t, uint(3), plan.Notifications[0].AthleteID)

	dispatcher.Send(context.Background(), plan, persisted(plan))
	assert.Len(t, writer.sent, 1)
}

func TestEventDispatcher_Plan_TruncatesLongMessages(t *testing.T) {
	sender := &recordingTransport{}
	dispatcher, _ := newDispatcherFixture(true, staticSubscriberSource{
		perAthlete: map[uint][]domain.ParentConnection{
			3: {connectionFixture(1, 3, domain.FrequencyImmediate)},
		},
	}, sender)

	plan, err := dispatcher.Plan(context.Background(), domain.NewEvent(
		domain.EventGoalCompleted, 3, 10, domain.GoalCompletedPayload{
			GoalTitle: strings.Repeat("run a very long distance ", 20),
		}))

	require.NoError(t, err)
	require.Len(t, plan.Notifications, 1)
	runes := []rune(plan.Notifications[0].Message)
	assert.Len(t, runes, messageCap+1) // cap plus the ellipsis
	assert.Equal(t, '…', runes[len(runes)-1])
	// The untruncated payload still travels in the structured data.
	assert.Contains(t, string(plan.Notifications[0].Data), "run a very long distance")
}

func TestEventDispatcher_Send_TransportFailureIsRecordedNotReturned(t *testing.T) {
	sender := &recordingTransport{err: errors.New("smtp down")}
	dispatcher, writer := newDispatcherFixture(true, staticSubscriberSource{
		perAthlete: map[uint][]domain.ParentConnection{
			3: {connectionFixture(1, 3, domain.FrequencyImmediate)},
		},
	}, sender)

	plan, err := dispatcher.Plan(context.Background(), domain.NewEvent(
		domain.EventPerformanceRecorded, 3, 10, domain.PerformancePayload{
			TestName: "beep test",
			Value:    11.5,
			Unit:     "level",
		}))
	require.NoError(t, err)
	require.Len(t, plan.Notifications, 1)

	created := persisted(plan)
	dispatcher.Send(context.Background(), plan, created)

	assert.Equal(t, domain.DeliveryFailed, created[0].Status)
	assert.Equal(t, []uint{1}, writer.failed)
	assert.Empty(t, writer.sent)
}

func TestEventDispatcher_Plan_UnknownEventTypePanics(t *testing.T) {
	sender := &recordingTransport{}
	dispatcher, _ := newDispatcherFixture(true, staticSubscriberSource{}, sender)

	assert.Panics(t, func() {
		_, _ = dispatcher.Plan(context.Background(), domain.Event{Type: "meteor_strike"})
	})
}
