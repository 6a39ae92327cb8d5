package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventAttendanceAbsence   EventType = "attendance_absence"
	EventPerformanceRecorded EventType = "performance_recorded"
	EventLeaveDecided        EventType = "leave_decided"
	EventAnnouncementPosted  EventType = "announcement_posted"
	EventGoalCompleted       EventType = "goal_completed"
)

// Event is an immutable fact describing a state change. It is produced
// exactly once, in the same transaction as the mutation that caused it.
// AthleteID is zero for club-wide events (announcements).
type Event struct {
	ID         uuid.UUID
	Type       EventType
	AthleteID  uint
	ClubID     uint
	Payload    Payload
	OccurredAt time.Time
}

func NewEvent(t EventType, athleteID, clubID uint, payload Payload) Event {
	return Event{
		ID:         uuid.New(),
		Type:       t,
		AthleteID:  athleteID,
		ClubID:     clubID,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}

// DecodePayload rebuilds the payload variant for a stored event. The switch
// is exhaustive over EventType; an unknown type is a wiring bug.
func DecodePayload(t EventType, raw []byte) (Payload, error) {
	var (
		p   Payload
		err error
	)

	switch t {
	case EventAttendanceAbsence:
		var v AbsencePayload
		err = json.Unmarshal(raw, &v)
		p = v
	case EventPerformanceRecorded:
		var v PerformancePayload
		err = json.Unmarshal(raw, &v)
		p = v
	case EventLeaveDecided:
		var v LeaveDecidedPayload
		err = json.Unmarshal(raw, &v)
		p = v
	case EventAnnouncementPosted:
		var v AnnouncementPayload
		err = json.Unmarshal(raw, &v)
		p = v
	case EventGoalCompleted:
		var v GoalCompletedPayload
		err = json.Unmarshal(raw, &v)
		p = v
	default:
		return nil, fmt.Errorf("unknown event type %q", t)
	}

	if err != nil {
		return nil, err
	}

	return p, nil
}

// Payload is the closed set of event payload variants. Every variant knows
// its notification category and how to render itself; free-form maps are
// deliberately not representable.
type Payload interface {
	Category() Category
	Render(athleteName string) (title, message string)
}

type AbsencePayload struct {
	SessionName string    `json:"session_name"`
	SessionDate time.Time `json:"session_date"`
	Status      string    `json:"status"` // "absent" or "late"
}

func (AbsencePayload) Category() Category { return CategoryAttendance }

func (p AbsencePayload) Render(athleteName string) (string, string) {
	title := fmt.Sprintf("%s marked %s", athleteName, p.Status)
	message := fmt.Sprintf("%s was marked %s for %s on %s.",
		athleteName, p.Status, p.SessionName, p.SessionDate.Format("Jan 2, 2006"))

	return title, message
}

type PerformancePayload struct {
	TestName string  `json:"test_name"`
	Value    float64 `json:"value"`
	Unit     string  `json:"unit"`
}

func (PerformancePayload) Category() Category { return CategoryPerformance }

func (p PerformancePayload) Render(athleteName string) (string, string) {
	title := fmt.Sprintf("New test result for %s", athleteName)
	message := fmt.Sprintf("%s scored %g %s on %s.", athleteName, p.Value, p.Unit, p.TestName)

	return title, message
}

type LeaveDecidedPayload struct {
	Approved  bool      `json:"approved"`
	Reason    string    `json:"reason,omitempty"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

func (LeaveDecidedPayload) Category() Category { return CategoryLeave }

func (p LeaveDecidedPayload) Render(athleteName string) (string, string) {
	verdict := "approved"
	if !p.Approved {
		verdict = "rejected"
	}
	title := fmt.Sprintf("Leave request %s for %s", verdict, athleteName)
	message := fmt.Sprintf("The leave request of %s (%s – %s) was %s.",
		athleteName, p.StartDate.Format("Jan 2"), p.EndDate.Format("Jan 2, 2006"), verdict)

	return title, message
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

type AnnouncementPayload struct {
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Priority Priority `json:"priority"`
}

func (AnnouncementPayload) Category() Category { return CategoryAnnouncements }

func (p AnnouncementPayload) Render(string) (string, string) {
	return "Club announcement: " + p.Title, p.Body
}

type GoalCompletedPayload struct {
	GoalTitle string `json:"goal_title"`
}

func (GoalCompletedPayload) Category() Category { return CategoryGoals }

func (p GoalCompletedPayload) Render(athleteName string) (string, string) {
	title := fmt.Sprintf("%s completed a goal", athleteName)
	message := fmt.Sprintf("%s completed the training goal %q.", athleteName, p.GoalTitle)

	return title, message
}
