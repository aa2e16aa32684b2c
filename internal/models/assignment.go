package models

import (
	"fmt"
	"strings"
	"time"
)

// AssignmentStatus is the lifecycle status of a word assignment.
// PENDING and COMPLETED are the only canonical values; legacy documents
// written by old mobile clients carry "PENDIENTE", "activa" or "COMPLETADO"
// and are normalized at the store boundary.
type AssignmentStatus string

const (
	StatusPending   AssignmentStatus = "PENDING"
	StatusCompleted AssignmentStatus = "COMPLETED"
)

// ParseAssignmentStatus normalizes a wire status string into the closed
// status enumeration. Unknown values are an error, never a default.
func ParseAssignmentStatus(value string) (AssignmentStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "PENDING", "PENDIENTE", "ACTIVA":
		return StatusPending, nil
	case "COMPLETED", "COMPLETADO":
		return StatusCompleted, nil
	default:
		return "", fmt.Errorf("unknown assignment status %q", value)
	}
}

// Assignment represents one word assigned to one student by one teacher.
// Word text, refs, difficulty and the student display name are copied from
// their source records at assignment time and are not kept in sync.
type Assignment struct {
	ID          string
	TeacherID   string
	StudentID   string
	WordID      string
	WordText    string
	ImageURL    string
	AudioURL    string
	Difficulty  int // 1-5 scale
	StudentName string
	Status      AssignmentStatus
	AssignedAt  time.Time
	DueAt       *time.Time
	CompletedAt *time.Time
}
