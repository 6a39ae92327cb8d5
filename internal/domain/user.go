package domain

import "time"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCoach   Role = "coach"
	RoleAthlete Role = "athlete"
	RoleParent  Role = "parent"
)

// User is an authenticated principal. Admin, coach and athlete are bound to
// exactly one club; a parent has no club of its own and reaches athlete data
// only through verified connections.
type User struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	ClubID    uint      `json:"club_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ClubScoped reports whether the user's access is bounded by its club.
func (u User) ClubScoped() bool {
	return u.Role == RoleCoach || u.Role == RoleAthlete
}
