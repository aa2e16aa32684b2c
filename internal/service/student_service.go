package service

import (
	"context"
	"fmt"
	"log"

	"palabritas/internal/credentials"
	"palabritas/internal/models"
	"palabritas/internal/repository"
	"palabritas/internal/validation"
)

// StudentService handles tutor-facing student management and the student
// read models (pending assignments live in AssignmentService, the personal
// dictionary here).
type StudentService struct {
	studentRepo    *repository.StudentRepository
	assignmentRepo *repository.AssignmentRepository
	emailService   *EmailService
}

// NewStudentService creates a new student service.
func NewStudentService(studentRepo *repository.StudentRepository, assignmentRepo *repository.AssignmentRepository, emailService *EmailService) *StudentService {
	return &StudentService{
		studentRepo:    studentRepo,
		assignmentRepo: assignmentRepo,
		emailService:   emailService,
	}
}

// RegisterStudent creates a student under the tutor and issues an access
// code for device sign-in. When inviteEmail is set, the access code is
// mailed there so the family can sign the student in on their device.
func (s *StudentService) RegisterStudent(ctx context.Context, tutorID string, student models.Student, inviteEmail string) (*models.Student, error) {
	if err := validation.ValidateName(student.Name); err != nil {
		return nil, err
	}
	if err := validation.ValidateAge(student.Age); err != nil {
		return nil, err
	}

	code, err := credentials.GenerateAccessCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate access code: %w", err)
	}

	student.TutorID = tutorID
	student.AccessCode = code

	id, err := s.studentRepo.CreateStudent(ctx, student)
	if err != nil {
		return nil, err
	}

	student.ID = id
	s.sendInvitation(ctx, student, inviteEmail)
	return &student, nil
}

// sendInvitation mails the access code to the invited tutor, best effort.
// Failures are logged, never surfaced: the student is already registered.
func (s *StudentService) sendInvitation(ctx context.Context, student models.Student, inviteEmail string) {
	if s.emailService == nil || inviteEmail == "" {
		return
	}
	if err := s.emailService.SendTutorInvitation(ctx, inviteEmail, student.FullName(), student.AccessCode); err != nil {
		log.Printf("failed to send tutor invitation to %s: %v", inviteEmail, err)
	}
}

// UpdateStudent applies tutor edits to a student record.
func (s *StudentService) UpdateStudent(ctx context.Context, tutorID string, student models.Student) error {
	existing, err := s.studentRepo.GetStudent(ctx, student.ID)
	if err != nil {
		return err
	}
	if existing.TutorID != tutorID {
		return fmt.Errorf("student %s: %w", student.ID, repository.ErrNotFound)
	}
	if err := validation.ValidateName(student.Name); err != nil {
		return err
	}

	return s.studentRepo.UpdateStudent(ctx, student)
}

// StudentsForTutor lists the tutor's students.
func (s *StudentService) StudentsForTutor(ctx context.Context, tutorID string) ([]models.Student, error) {
	return s.studentRepo.ListStudentsByTutor(ctx, tutorID)
}

// StudentsForTeacher lists the students associated with a teacher.
func (s *StudentService) StudentsForTeacher(ctx context.Context, teacherID string) ([]models.Student, error) {
	return s.studentRepo.ListStudentsByTeacher(ctx, teacherID)
}

// PersonalDictionary returns the student's learned words, newest first.
func (s *StudentService) PersonalDictionary(ctx context.Context, studentID string) ([]models.DictionaryEntry, error) {
	return s.assignmentRepo.GetDictionary(ctx, studentID)
}
