package model

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User mirrors the identity provider's directory: enough to resolve a bearer
// token subject and to match legacy postbacks by email.
type User struct {
	ID        string
	Email     string
	Role      Role
	CreatedAt time.Time
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
