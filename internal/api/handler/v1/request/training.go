package request

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

type RecordAttendanceRequest struct {
	AthleteID   uint      `json:"athlete_id"`
	SessionName string    `json:"session_name"`
	SessionDate time.Time `json:"session_date"`
	Status      string    `json:"status"`
	Note        string    `json:"note,omitempty"`
}

func (req *RecordAttendanceRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.AthleteID, validation.Required),
		validation.Field(&req.SessionName, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.SessionDate, validation.Required),
		validation.Field(&req.Status, validation.Required, validation.In("present", "absent", "late")),
	)
}

type RecordTestResultRequest struct {
	AthleteID uint    `json:"athlete_id"`
	TestName  string  `json:"test_name"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
}

func (req *RecordTestResultRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.AthleteID, validation.Required),
		validation.Field(&req.TestName, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.Value, validation.Required),
		validation.Field(&req.Unit, validation.Required, validation.Length(1, 20)),
	)
}

type CreateGoalRequest struct {
	AthleteID uint   `json:"athlete_id"`
	Title     string `json:"title"`
}

func (req *CreateGoalRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.AthleteID, validation.Required),
		validation.Field(&req.Title, validation.Required, validation.Length(1, 200)),
	)
}
