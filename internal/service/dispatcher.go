package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sportsclubhq/clubsync/internal/domain"
)

// messageCap bounds the rendered message embedded next to the title; the full
// body always travels in the structured data.
const messageCap = 100

// Transport is the external email/push collaborator.
type Transport interface {
	Send(ctx context.Context, recipient, title, message string) error
}

type FlagGate interface {
	IsEnabled(ctx context.Context, name string, principalID uint) (bool, error)
}

type SubscriberSource interface {
	ResolveSubscribers(ctx context.Context, athleteID uint, category domain.Category) ([]domain.ParentConnection, error)
	ResolveClubSubscribers(ctx context.Context, clubID uint, category domain.Category) ([]domain.ParentConnection, error)
}

// NotificationWriter settles delivery status after the transport attempt.
type NotificationWriter interface {
	MarkSent(ctx context.Context, id uint, sentAt time.Time) error
	MarkFailed(ctx context.Context, id uint) error
}

type AthleteDirectory interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
}

// featureFlagByEvent names the flag owning each event type's fan-out.
var featureFlagByEvent = map[domain.EventType]string{
	domain.EventAttendanceAbsence:   "attendance_alerts_v1",
	domain.EventPerformanceRecorded: "performance_alerts_v1",
	domain.EventLeaveDecided:        "leave_alerts_v1",
	domain.EventAnnouncementPosted:  "club_announcements_v1",
	domain.EventGoalCompleted:       "home_training_v1",
}

// FanOutPlan carries the pending records an event fans out to, plus the
// recipient address of each connection. Plans are computed before the
// emitting mutation commits so the records can be inserted in the same
// transaction.
type FanOutPlan struct {
	Notifications []domain.Notification

	recipients map[uint]string // connection id -> parent email
}

// EventDispatcher turns a domain event into notification records for
// opted-in subscribers. Plan runs before the mutation transaction commits,
// Send strictly after: a crash between the two leaves pending rows behind,
// never silently lost deliveries.
type EventDispatcher struct {
	flags         FlagGate
	subscriptions SubscriberSource
	notifications NotificationWriter
	users         AthleteDirectory
	transport     Transport
	sendTimeout   time.Duration
}

func NewEventDispatcher(flags FlagGate, subscriptions SubscriberSource, notifications NotificationWriter, users AthleteDirectory, transport Transport, sendTimeout time.Duration) *EventDispatcher {
	return &EventDispatcher{
		flags:         flags,
		subscriptions: subscriptions,
		notifications: notifications,
		users:         users,
		transport:     transport,
		sendTimeout:   sendTimeout,
	}
}

// Plan resolves an event into pending notification records for its
// immediate subscribers. The caller persists them in the transaction of the
// mutation that emitted the event, then hands the committed rows to Send.
// An empty plan means nothing fans out.
func (d *EventDispatcher) Plan(ctx context.Context, event domain.Event) (FanOutPlan, error) {
	enabled, err := d.gateOpen(ctx, event)
	if err != nil {
		return FanOutPlan{}, err
	}
	if !enabled {
		return FanOutPlan{}, nil
	}

	// Low-priority announcements are throttled out entirely.
	if payload, ok := event.Payload.(domain.AnnouncementPayload); ok {
		if payload.Priority != domain.PriorityHigh && payload.Priority != domain.PriorityUrgent {
			return FanOutPlan{}, nil
		}
	}

	category := event.Payload.Category()

	subscribers, err := d.resolve(ctx, event, category)
	if err != nil {
		return FanOutPlan{}, err
	}
	if len(subscribers) == 0 {
		return FanOutPlan{}, nil
	}

	title, message, data, err := d.render(ctx, event)
	if err != nil {
		return FanOutPlan{}, err
	}

	plan := FanOutPlan{recipients: make(map[uint]string)}
	for _, sub := range subscribers {
		if sub.Frequency != domain.FrequencyImmediate {
			// Daily/weekly subscribers are picked up by the digest batcher
			// from the durable event log; nothing to do now.
			continue
		}

		plan.Notifications = append(plan.Notifications, domain.Notification{
			ConnectionID: sub.ID,
			EventID:      event.ID,
			AthleteID:    subjectAthleteID(event, sub),
			Category:     category,
			Title:        title,
			Message:      message,
			Data:         data,
			Status:       domain.DeliveryPending,
		})
		plan.recipients[sub.ID] = sub.ParentEmail
	}

	return plan, nil
}

// Send pushes the committed records to the transport and settles each
// status in place. It runs after the mutation transaction commits, so a
// transport failure is recorded, never returned: the mutation must not be
// unwound.
func (d *EventDispatcher) Send(ctx context.Context, plan FanOutPlan, created []domain.Notification) {
	for i := range created {
		d.deliver(ctx, &created[i], plan.recipients[created[i].ConnectionID])
	}
}

func (d *EventDispatcher) deliver(ctx context.Context, n *domain.Notification, recipient string) {
	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	if err := d.transport.Send(sendCtx, recipient, n.Title, n.Message); err != nil {
		zap.L().Warn("notification delivery failed",
			zap.Uint("notification_id", n.ID),
			zap.Error(err))

		n.Status = domain.DeliveryFailed
		if merr := d.notifications.MarkFailed(ctx, n.ID); merr != nil {
			zap.L().Error("failed to record delivery failure",
				zap.Uint("notification_id", n.ID),
				zap.Error(merr))
		}

		return
	}

	sentAt := time.Now().UTC()
	n.Status = domain.DeliverySent
	n.SentAt = &sentAt
	if err := d.notifications.MarkSent(ctx, n.ID, sentAt); err != nil {
		zap.L().Error("failed to record delivery success",
			zap.Uint("notification_id", n.ID),
			zap.Error(err))
	}
}

func (d *EventDispatcher) gateOpen(ctx context.Context, event domain.Event) (bool, error) {
	flagName, ok := featureFlagByEvent[event.Type]
	if !ok {
		panic(fmt.Sprintf("dispatcher: unknown event type %q", event.Type))
	}

	// Club-wide events bucket by club, athlete events by athlete, so a
	// rollout exposes whole clubs to announcements consistently.
	principalID := event.AthleteID
	if event.Type == domain.EventAnnouncementPosted {
		principalID = event.ClubID
	}

	enabled, err := d.flags.IsEnabled(ctx, flagName, principalID)
	if err != nil {
		return false, fmt.Errorf("d.flags.IsEnabled -> %w", err)
	}

	return enabled, nil
}

func (d *EventDispatcher) resolve(ctx context.Context, event domain.Event, category domain.Category) ([]domain.ParentConnection, error) {
	// Announcements broadcast to every subscribed connection of the club's
	// athletes; all other events target one athlete.
	if event.Type == domain.EventAnnouncementPosted {
		subs, err := d.subscriptions.ResolveClubSubscribers(ctx, event.ClubID, category)
		if err != nil {
			return nil, fmt.Errorf("d.subscriptions.ResolveClubSubscribers -> %w", err)
		}

		return subs, nil
	}

	subs, err := d.subscriptions.ResolveSubscribers(ctx, event.AthleteID, category)
	if err != nil {
		return nil, fmt.Errorf("d.subscriptions.ResolveSubscribers -> %w", err)
	}

	return subs, nil
}

func (d *EventDispatcher) render(ctx context.Context, event domain.Event) (string, string, json.RawMessage, error) {
	athleteName := ""
	if event.AthleteID != 0 {
		athlete, err := d.users.FindByID(ctx, event.AthleteID)
		if err != nil {
			return "", "", nil, fmt.Errorf("d.users.FindByID -> %w", err)
		}
		athleteName = athlete.Name
	}

	title, message := event.Payload.Render(athleteName)
	message = truncate(message, messageCap)

	data, err := json.Marshal(event.Payload)
	if err != nil {
		return "", "", nil, fmt.Errorf("json.Marshal event payload -> %w", err)
	}

	return title, message, data, nil
}

func subjectAthleteID(event domain.Event, sub domain.ParentConnection) uint {
	if event.AthleteID != 0 {
		return event.AthleteID
	}

	// Club-wide event: the record points at the subscriber's own athlete.
	return sub.AthleteID
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}

	runes := []rune(s)
	if len(runes) <= max {
		return s
	}

	return string(runes[:max]) + "…"
}
