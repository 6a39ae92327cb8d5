package domain

import "time"

type Relationship string

const (
	RelationshipFather   Relationship = "father"
	RelationshipMother   Relationship = "mother"
	RelationshipGuardian Relationship = "guardian"
)

type Frequency string

const (
	FrequencyImmediate Frequency = "immediate"
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
)

type Category string

const (
	CategoryAttendance    Category = "attendance"
	CategoryPerformance   Category = "performance"
	CategoryLeave         Category = "leave"
	CategoryAnnouncements Category = "announcements"
	CategoryGoals         Category = "goals"
)

// Preferences holds the per-category opt-in toggles of a connection.
type Preferences struct {
	Attendance    bool `json:"attendance"`
	Performance   bool `json:"performance"`
	Leave         bool `json:"leave"`
	Announcements bool `json:"announcements"`
	Goals         bool `json:"goals"`
}

func (p Preferences) Subscribed(c Category) bool {
	switch c {
	case CategoryAttendance:
		return p.Attendance
	case CategoryPerformance:
		return p.Performance
	case CategoryLeave:
		return p.Leave
	case CategoryAnnouncements:
		return p.Announcements
	case CategoryGoals:
		return p.Goals
	}

	return false
}

// ParentConnection links one parent to one athlete.
//
// Lifecycle: created unverified, becomes verified once the out-of-band token
// is confirmed, and may be soft-revoked (Active=false) by the athlete at any
// time. There is no inactive→active transition; re-linking takes a fresh
// Connect so stale consent is never silently reused.
type ParentConnection struct {
	ID             uint         `json:"id"`
	AthleteID      uint         `json:"athlete_id"`
	ParentUserID   uint         `json:"parent_user_id,omitempty"`
	ParentEmail    string       `json:"parent_email"`
	Relationship   Relationship `json:"relationship"`
	Verified       bool         `json:"verified"`
	Active         bool         `json:"active"`
	Preferences    Preferences  `json:"preferences"`
	Frequency      Frequency    `json:"frequency"`
	VerifyToken    string       `json:"-"`
	TokenExpiresAt time.Time    `json:"-"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Subscribable reports whether the connection may receive fan-out at all.
func (c ParentConnection) Subscribable() bool {
	return c.Verified && c.Active
}
