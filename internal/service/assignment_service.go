package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"palabritas/internal/models"
	"palabritas/internal/repository"
)

// AssignmentService handles the assignment business logic on top of the
// repository: the duplicate guard, denormalization of word and student
// fields, and the optional tutor notification.
type AssignmentService struct {
	assignmentRepo *repository.AssignmentRepository
	studentRepo    *repository.StudentRepository
	wordRepo       *repository.WordRepository
	userRepo       *repository.UserRepository
	emailService   *EmailService

	// guardFailOpen preserves the legacy client behavior of permitting the
	// write when the duplicate check itself fails. Off by default: a failed
	// check fails the creation.
	guardFailOpen bool
}

// NewAssignmentService creates a new assignment service.
func NewAssignmentService(
	assignmentRepo *repository.AssignmentRepository,
	studentRepo *repository.StudentRepository,
	wordRepo *repository.WordRepository,
	userRepo *repository.UserRepository,
	emailService *EmailService,
	guardFailOpen bool,
) *AssignmentService {
	return &AssignmentService{
		assignmentRepo: assignmentRepo,
		studentRepo:    studentRepo,
		wordRepo:       wordRepo,
		userRepo:       userRepo,
		emailService:   emailService,
		guardFailOpen:  guardFailOpen,
	}
}

// AssignWord assigns a catalog word to a student on behalf of a teacher.
// The word's text, refs and difficulty and the student's display name are
// copied onto the assignment record. Returns the new assignment ID.
func (s *AssignmentService) AssignWord(ctx context.Context, teacherID, studentID, wordID string, dueAt *time.Time) (string, error) {
	assigned, err := s.assignmentRepo.IsWordAlreadyAssigned(ctx, studentID, wordID)
	if err != nil {
		if !s.guardFailOpen {
			return "", fmt.Errorf("duplicate check failed: %w", err)
		}
		log.Printf("duplicate check failed, permitting write: %v", err)
	}
	if assigned {
		return "", repository.ErrDuplicateAssignment
	}

	word, err := s.wordRepo.GetWord(ctx, wordID)
	if err != nil {
		return "", err
	}
	student, err := s.studentRepo.GetStudent(ctx, studentID)
	if err != nil {
		return "", err
	}

	id, err := s.assignmentRepo.CreateAssignment(ctx, models.Assignment{
		TeacherID:   teacherID,
		StudentID:   studentID,
		WordID:      wordID,
		WordText:    word.Text,
		ImageURL:    word.ImageURL,
		AudioURL:    word.AudioURL,
		Difficulty:  word.Difficulty,
		StudentName: student.FullName(),
		Status:      models.StatusPending,
		DueAt:       dueAt,
	})
	if err != nil {
		return "", err
	}

	s.notifyTutor(ctx, student, word)
	return id, nil
}

// CompleteAssignment records a successful play of the assigned word. Only
// the student the word was assigned to may complete it; anyone else's
// assignment reads as not found to avoid leaking existence.
func (s *AssignmentService) CompleteAssignment(ctx context.Context, assignmentID, studentID string) error {
	a, err := s.assignmentRepo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return err
	}
	if a.StudentID != studentID {
		return fmt.Errorf("assignment %s: %w", assignmentID, repository.ErrNotFound)
	}
	return s.assignmentRepo.CompleteAssignment(ctx, assignmentID)
}

// PendingAssignments returns the student's open assignments, newest first,
// optionally narrowed by difficulty and word-text query.
func (s *AssignmentService) PendingAssignments(ctx context.Context, studentID string, difficulty int, query string) ([]models.Assignment, error) {
	return s.assignmentRepo.ListFilteredAssignmentsByStudent(ctx, studentID, difficulty, query)
}

// notifyTutor sends a best-effort email to the student's tutor about the
// new assignment. Failures are logged, never surfaced.
func (s *AssignmentService) notifyTutor(ctx context.Context, student *models.Student, word *models.Word) {
	if s.emailService == nil || !s.emailService.IsEnabled() || student.TutorID == "" {
		return
	}

	tutor, err := s.userRepo.GetUser(ctx, student.TutorID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Printf("failed to load tutor %s for notification: %v", student.TutorID, err)
		}
		return
	}

	if err := s.emailService.SendAssignmentNotification(ctx, tutor.Email, student.FullName(), word.Text); err != nil {
		log.Printf("failed to send assignment notification to %s: %v", tutor.Email, err)
	}
}
