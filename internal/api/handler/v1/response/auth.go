package response

import "github.com/sportsclubhq/clubsync/internal/domain"

type LoginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}
