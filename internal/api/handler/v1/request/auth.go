package request

import (
	"errors"

	"github.com/dlclark/regexp2"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const passwordRegexPattern = `^(?=.*[A-Za-z])(?=.*\d).{8,}$`

// The pattern needs lookaheads, which the stdlib regexp engine rejects.
var passwordExp = regexp2.MustCompile(passwordRegexPattern, regexp2.None)

var (
	errInvalidPassword         = errors.New("the password must be at least 8 characters and contain 1 letter and 1 number")
	errConfirmPasswordMismatch = errors.New("confirm password doesn't match the password")
	errMissingClub             = errors.New("club_id is required for admin, coach and athlete signup")
	errMissingAthleteEmails    = errors.New("at least one athlete email is required for parent signup")
)

type SignupRequest struct {
	Email           string   `json:"email"`
	Password        string   `json:"password"`
	ConfirmPassword string   `json:"confirm_password"`
	Name            string   `json:"name"`
	Role            string   `json:"role"`
	ClubID          uint     `json:"club_id,omitempty"`
	Relationship    string   `json:"relationship,omitempty"`
	AthleteEmails   []string `json:"athlete_emails,omitempty"`
}

func (req *SignupRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Password, validation.Required),
		validation.Field(&req.ConfirmPassword, validation.Required),
		validation.Field(&req.Name, validation.Required),
		validation.Field(&req.Role, validation.Required, validation.In("admin", "coach", "athlete", "parent")),
		validation.Field(&req.Relationship, validation.In("father", "mother", "guardian")),
	)
	if err != nil {
		return err
	}

	if ok, _ := passwordExp.MatchString(req.Password); !ok {
		return errInvalidPassword
	}

	if req.Password != req.ConfirmPassword {
		return errConfirmPasswordMismatch
	}

	switch req.Role {
	case "parent":
		if len(req.AthleteEmails) == 0 {
			return errMissingAthleteEmails
		}
		for _, email := range req.AthleteEmails {
			if err := is.Email.Validate(email); err != nil {
				return err
			}
		}
	default:
		if req.ClubID == 0 {
			return errMissingClub
		}
	}

	return nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req *LoginRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Password, validation.Required),
	)
}
