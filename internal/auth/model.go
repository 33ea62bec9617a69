package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

type Admin struct {
	ID            string
	Username      string
	Email         string
	PasswordHash  string
	Role          Role
	IsActive      bool
	LastLogin     *time.Time
	LoginAttempts int
	LockUntil     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (a Admin) LockState() LockState {
	return LockState{Attempts: a.LoginAttempts, LockUntil: a.LockUntil}
}

// IsLocked is derived from LockUntil and never stored.
func (a Admin) IsLocked(now time.Time) bool {
	return a.LockState().Locked(now)
}

type Profile struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	IsActive  bool       `json:"isActive"`
	LastLogin *time.Time `json:"lastLogin"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (a Admin) Profile() Profile {
	return Profile{
		ID:        a.ID,
		Username:  a.Username,
		Email:     a.Email,
		Role:      a.Role,
		IsActive:  a.IsActive,
		LastLogin: a.LastLogin,
		CreatedAt: a.CreatedAt,
	}
}

type Session struct {
	Token     string  `json:"token"`
	TokenType string  `json:"tokenType"`
	ExpiresIn int64   `json:"expiresIn"`
	Admin     Profile `json:"admin"`
}

type Claims struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Type     string `json:"typ"`
	jwt.RegisteredClaims
}
