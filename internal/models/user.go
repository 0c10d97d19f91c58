package models

import "time"

// Role is the permission level of a user account.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User represents an account stored in the users document.
//
// Passwords are stored and compared as plain text.
type User struct {
	// Username is the unique login name. It also keys every per-user document.
	Username string `json:"username"`

	// Password is the plain text password.
	Password string `json:"password"`

	// Nickname is the display name shown in the UI.
	Nickname string `json:"nickname"`

	// Role is admin or user. Missing on records written before roles existed.
	Role Role `json:"role"`

	// CreatedAt is when the account was created.
	// Missing on records written before the field existed.
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// PublicUser is a User without its password, used for listings and sessions.
type PublicUser struct {
	Username  string    `json:"username"`
	Nickname  string    `json:"nickname"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// Public strips the password from u.
func (u User) Public() PublicUser {
	return PublicUser{
		Username:  u.Username,
		Nickname:  u.Nickname,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// NewUser holds the fields accepted when an admin creates an account.
type NewUser struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
	Role     Role   `json:"role"`
}

// UserPatch is a partial update of a user. Nil fields are left unchanged.
type UserPatch struct {
	Nickname *string `json:"nickname,omitempty" validate:"omitnil,min=1,max=50"`
	Role     *Role   `json:"role,omitempty" validate:"omitnil,oneof=admin user"`
}

// DefaultAdmin is the account bootstrapped when no users document exists.
func DefaultAdmin(now time.Time) User {
	return User{
		Username:  "admin",
		Password:  "changeme",
		Nickname:  "Administrator",
		Role:      RoleAdmin,
		CreatedAt: now,
	}
}

// NormalizeUsers backfills role and createdAt in place.
// A user without a role becomes admin if it is the first record and user otherwise.
func NormalizeUsers(users []User, now time.Time) {
	for i := range users {
		if users[i].Role == "" {
			if i == 0 {
				users[i].Role = RoleAdmin
			} else {
				users[i].Role = RoleUser
			}
		}
		if users[i].CreatedAt.IsZero() {
			users[i].CreatedAt = now
		}
	}
}
