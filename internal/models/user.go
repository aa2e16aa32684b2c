package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleTutor   Role = "tutor"
	RoleTeacher Role = "docente"
	RoleAdmin   Role = "admin"
)

// ParseRole normalizes a wire role string into the closed role enumeration.
// Unrecognized roles fail loudly rather than defaulting.
func ParseRole(value string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "tutor":
		return RoleTutor, nil
	case "docente", "teacher":
		return RoleTeacher, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", value)
	}
}

// User represents an adult account (tutor, teacher or admin).
type User struct {
	ID            string
	Email         string
	PasswordHash  string
	Name          string
	Role          Role
	InstitutionID string
	RegisteredAt  time.Time
}

// Session represents a logged-in browser or device session.
type Session struct {
	ID        string
	UserID    string
	StudentID string // set for student (access-code) sessions
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired reports whether the session has passed its expiry.
func (s Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
