package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID                int64      `json:"id"`
	Username          string     `json:"username"`
	Role              string     `json:"role"`
	Blocked           bool       `json:"blocked"`
	MainAccountNumber *string    `json:"main_account_number,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	LastLogin         *time.Time `json:"last_login,omitempty"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
