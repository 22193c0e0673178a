package users

import "time"

// User is an office or field user. The store owns the canonical row and
// maintains the timestamps; services and handlers only ever see snapshots.
type User struct {
	UserID       string `json:"user_id" db:"user_id"`
	FullName     string `json:"full_name" db:"full_name"`
	Phone        string `json:"phone" db:"phone"`
	Email        string `json:"email" db:"email"`
	RoleID       string `json:"role_id" db:"role_id"`
	IsActive     bool   `json:"is_active" db:"is_active"`
	ProfileImage string `json:"profile_image,omitempty" db:"profile_image"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (u User) RecordID() string { return u.UserID }

type Role struct {
	RoleID      string `json:"role_id" db:"role_id"`
	RoleName    string `json:"role_name" db:"role_name"`
	Description string `json:"description,omitempty" db:"description"`

	// IsOfficeRole marks roles whose members appear in the office user
	// listing (as opposed to field-only roles).
	IsOfficeRole bool `json:"is_office_role" db:"is_office_role"`
}

// AssignedRole is the user-facing view of a role assignment.
type AssignedRole struct {
	RoleID          string    `json:"role_id"`
	RoleName        string    `json:"role_name"`
	RoleDescription string    `json:"role_description,omitempty"`
	AssignedAt      time.Time `json:"assigned_at"`
}
