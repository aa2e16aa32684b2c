package models

import "time"

// Student represents a learner registered by a tutor.
// TeacherID stays blank until the first time a teacher assigns the student
// a word; the assignment flow then merges the association onto this record.
type Student struct {
	ID            string
	Name          string
	Surname       string
	Age           int
	Grade         string
	Section       string
	TutorID       string
	TeacherID     string
	InstitutionID string
	PhotoURL      string
	AccessCode    string
	RegisteredAt  time.Time
}

// FullName returns the student's display name as shown on assignments.
func (s Student) FullName() string {
	if s.Surname == "" {
		return s.Name
	}
	return s.Name + " " + s.Surname
}
