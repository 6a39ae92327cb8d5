package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/sportsclubhq/clubsync/internal/domain"
)

type PreferencesPayload struct {
	Attendance    bool `json:"attendance"`
	Performance   bool `json:"performance"`
	Leave         bool `json:"leave"`
	Announcements bool `json:"announcements"`
	Goals         bool `json:"goals"`
}

func (p PreferencesPayload) ToDomain() domain.Preferences {
	return domain.Preferences{
		Attendance:    p.Attendance,
		Performance:   p.Performance,
		Leave:         p.Leave,
		Announcements: p.Announcements,
		Goals:         p.Goals,
	}
}

type ConnectRequest struct {
	AthleteID    uint               `json:"athlete_id"`
	ParentEmail  string             `json:"parent_email"`
	Relationship string             `json:"relationship"`
	Preferences  PreferencesPayload `json:"preferences"`
	Frequency    string             `json:"frequency"`
}

func (req *ConnectRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.AthleteID, validation.Required),
		validation.Field(&req.ParentEmail, validation.Required, is.Email),
		validation.Field(&req.Relationship, validation.Required, validation.In("father", "mother", "guardian")),
		validation.Field(&req.Frequency, validation.Required, validation.In("immediate", "daily", "weekly")),
	)
}

type VerifyConnectionRequest struct {
	Token string `json:"token"`
}

func (req *VerifyConnectionRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Token, validation.Required),
	)
}

type UpdatePreferencesRequest struct {
	Preferences PreferencesPayload `json:"preferences"`
	Frequency   string             `json:"frequency"`
}

func (req *UpdatePreferencesRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Frequency, validation.Required, validation.In("immediate", "daily", "weekly")),
	)
}
