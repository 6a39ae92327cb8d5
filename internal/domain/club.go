package domain

import "time"

type LeaveStatus string

const (
	LeavePending  LeaveStatus = "pending"
	LeaveApproved LeaveStatus = "approved"
	LeaveRejected LeaveStatus = "rejected"
)

type LeaveRequest struct {
	ID        uint        `json:"id"`
	AthleteID uint        `json:"athlete_id"`
	ClubID    uint        `json:"club_id"`
	StartDate time.Time   `json:"start_date"`
	EndDate   time.Time   `json:"end_date"`
	Reason    string      `json:"reason"`
	Status    LeaveStatus `json:"status"`
	DecidedBy uint        `json:"decided_by,omitempty"`
	DecidedAt *time.Time  `json:"decided_at,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// Decided reports whether the request has already been approved or rejected.
func (l LeaveRequest) Decided() bool {
	return l.Status != LeavePending
}

type Announcement struct {
	ID        uint      `json:"id"`
	ClubID    uint      `json:"club_id"`
	AuthorID  uint      `json:"author_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Priority  Priority  `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
}
