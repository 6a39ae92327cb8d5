package domain

import "time"

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
)

type AttendanceRecord struct {
	ID          uint             `json:"id"`
	AthleteID   uint             `json:"athlete_id"`
	ClubID      uint             `json:"club_id"`
	CoachID     uint             `json:"coach_id"`
	SessionName string           `json:"session_name"`
	SessionDate time.Time        `json:"session_date"`
	Status      AttendanceStatus `json:"status"`
	Note        string           `json:"note,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

type TestResult struct {
	ID         uint      `json:"id"`
	AthleteID  uint      `json:"athlete_id"`
	ClubID     uint      `json:"club_id"`
	CoachID    uint      `json:"coach_id"`
	TestName   string    `json:"test_name"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	RecordedAt time.Time `json:"recorded_at"`
}

type TrainingGoal struct {
	ID          uint       `json:"id"`
	AthleteID   uint       `json:"athlete_id"`
	ClubID      uint       `json:"club_id"`
	Title       string     `json:"title"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
