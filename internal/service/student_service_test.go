package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"palabritas/internal/models"
	"palabritas/internal/repository"
	"palabritas/internal/store/memstore"
)

var accessCodePattern = regexp.MustCompile(`^[a-z]+-[a-z]+-\d{2}$`)

func newStudentService(m *memstore.Memstore) *StudentService {
	return NewStudentService(
		repository.NewStudentRepository(m),
		repository.NewAssignmentRepository(m),
		nil,
	)
}

func TestRegisterStudent(t *testing.T) {
	ctx := context.Background()
	svc := newStudentService(memstore.New())

	student, err := svc.RegisterStudent(ctx, "tutor1", models.Student{
		Name:    "Ana",
		Surname: "García",
		Age:     8,
	}, "")
	if err != nil {
		t.Fatalf("RegisterStudent() error: %v", err)
	}
	if student.ID == "" {
		t.Error("student not assigned an ID")
	}
	if student.TutorID != "tutor1" {
		t.Errorf("TutorID = %q, want tutor1", student.TutorID)
	}
	if !accessCodePattern.MatchString(student.AccessCode) {
		t.Errorf("AccessCode = %q, want color-animal-NN", student.AccessCode)
	}
}

func TestRegisterStudentWithInvitation(t *testing.T) {
	ctx := context.Background()
	m := memstore.New()

	// a disabled email service turns the invitation into a logged no-op,
	// registration must still go through the full invitation path
	emailService, err := NewEmailService(ctx, "", "", "")
	if err != nil {
		t.Fatalf("NewEmailService() error: %v", err)
	}
	svc := NewStudentService(
		repository.NewStudentRepository(m),
		repository.NewAssignmentRepository(m),
		emailService,
	)

	student, err := svc.RegisterStudent(ctx, "tutor1", models.Student{
		Name: "Ana",
		Age:  8,
	}, "familia@example.com")
	if err != nil {
		t.Fatalf("RegisterStudent() with invitation error: %v", err)
	}
	if !accessCodePattern.MatchString(student.AccessCode) {
		t.Errorf("AccessCode = %q, want color-animal-NN", student.AccessCode)
	}
}

func TestRegisterStudentValidation(t *testing.T) {
	ctx := context.Background()
	svc := newStudentService(memstore.New())

	tests := []struct {
		name    string
		student models.Student
	}{
		{name: "missing name", student: models.Student{Age: 8}},
		{name: "age too low", student: models.Student{Name: "Ana", Age: 2}},
		{name: "age too high", student: models.Student{Name: "Ana", Age: 30}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.RegisterStudent(ctx, "tutor1", tt.student, ""); err == nil {
				t.Error("RegisterStudent() accepted invalid student")
			}
		})
	}
}

func TestUpdateStudentOwnership(t *testing.T) {
	ctx := context.Background()
	m := memstore.New()
	svc := newStudentService(m)

	student, err := svc.RegisterStudent(ctx, "tutor1", models.Student{Name: "Ana", Age: 8}, "")
	if err != nil {
		t.Fatalf("RegisterStudent() error: %v", err)
	}

	student.Name = "Ana María"
	if err := svc.UpdateStudent(ctx, "tutor1", *student); err != nil {
		t.Fatalf("UpdateStudent() by owner error: %v", err)
	}

	// another tutor sees not-found, not forbidden, to avoid leaking existence
	err = svc.UpdateStudent(ctx, "tutor2", *student)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("UpdateStudent() by non-owner error = %v, want ErrNotFound", err)
	}
}

func TestStudentsForTutor(t *testing.T) {
	ctx := context.Background()
	m := memstore.New()
	svc := newStudentService(m)

	for _, name := range []string{"Carla", "Ana", "Beto"} {
		if _, err := svc.RegisterStudent(ctx, "tutor1", models.Student{Name: name, Age: 8}, ""); err != nil {
			t.Fatalf("RegisterStudent(%s) error: %v", name, err)
		}
	}
	if _, err := svc.RegisterStudent(ctx, "tutor2", models.Student{Name: "Zoe", Age: 8}, ""); err != nil {
		t.Fatalf("RegisterStudent() error: %v", err)
	}

	students, err := svc.StudentsForTutor(ctx, "tutor1")
	if err != nil {
		t.Fatalf("StudentsForTutor() error: %v", err)
	}
	if len(students) != 3 {
		t.Fatalf("StudentsForTutor() = %d students, want 3", len(students))
	}
	// ordered by name
	if students[0].Name != "Ana" || students[1].Name != "Beto" || students[2].Name != "Carla" {
		t.Errorf("students not name-ordered: %v", []string{students[0].Name, students[1].Name, students[2].Name})
	}
}
