package request

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

var errEndBeforeStart = errors.New("end_date must not be before start_date")

type FileLeaveRequest struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Reason    string    `json:"reason"`
}

func (req *FileLeaveRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.StartDate, validation.Required),
		validation.Field(&req.EndDate, validation.Required),
		validation.Field(&req.Reason, validation.Required, validation.Length(1, 500)),
	)
	if err != nil {
		return err
	}

	if req.EndDate.Before(req.StartDate) {
		return errEndBeforeStart
	}

	return nil
}

type DecideLeaveRequest struct {
	Approved *bool  `json:"approved"`
	Reason   string `json:"reason,omitempty"`
}

func (req *DecideLeaveRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Approved, validation.NotNil),
		validation.Field(&req.Reason, validation.Length(0, 500)),
	)
}

type PostAnnouncementRequest struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Priority string `json:"priority"`
}

func (req *PostAnnouncementRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&req.Body, validation.Required),
		validation.Field(&req.Priority, validation.Required, validation.In("low", "normal", "high", "urgent")),
	)
}
