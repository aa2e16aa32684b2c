package repository

import (
	"context"
	"errors"
	"fmt"

	"palabritas/internal/mapper"
	"palabritas/internal/models"
	"palabritas/internal/store"
)

// StudentRepository handles store operations for student records.
type StudentRepository struct {
	store store.Store
}

// NewStudentRepository creates a new student repository.
func NewStudentRepository(st store.Store) *StudentRepository {
	return &StudentRepository{store: st}
}

// CreateStudent persists a new student with a server-assigned registration
// timestamp and returns the store-generated ID.
func (r *StudentRepository) CreateStudent(ctx context.Context, s models.Student) (string, error) {
	if s.Name == "" || s.TutorID == "" {
		return "", fmt.Errorf("%w: name and tutor ID are required", ErrValidation)
	}

	data := mapper.StudentToDoc(s)
	data["fechaRegistro"] = store.ServerTimestamp

	id, err := r.store.Collection(StudentsCollection).Add(ctx, data)
	if err != nil {
		return "", fmt.Errorf("failed to create student: %w", err)
	}
	return id, nil
}

// GetStudent loads one student by ID.
func (r *StudentRepository) GetStudent(ctx context.Context, studentID string) (*models.Student, error) {
	data, err := r.store.Collection(StudentsCollection).Doc(studentID).Get(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("student %s: %w", studentID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}

	s := mapper.StudentFromDoc(store.Document{ID: studentID, Data: data})
	return &s, nil
}

// GetStudentByAccessCode finds the student holding the given access code.
func (r *StudentRepository) GetStudentByAccessCode(ctx context.Context, code string) (*models.Student, error) {
	docs, err := r.store.Collection(StudentsCollection).Query().
		Where("codigoAcceso", "==", code).
		Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("access code: %w", ErrNotFound)
	}

	s := mapper.StudentFromDoc(docs[0])
	return &s, nil
}

// ListStudentsByTutor returns the students owned by a tutor.
func (r *StudentRepository) ListStudentsByTutor(ctx context.Context, tutorID string) ([]models.Student, error) {
	if tutorID == "" {
		return nil, fmt.Errorf("%w: tutor ID is required", ErrValidation)
	}

	docs, err := r.store.Collection(StudentsCollection).Query().
		Where("idTutor", "==", tutorID).
		OrderBy("nombre", false).
		Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}

	students := make([]models.Student, 0, len(docs))
	for _, doc := range docs {
		students = append(students, mapper.StudentFromDoc(doc))
	}
	return students, nil
}

// ListStudentsByTeacher returns the students associated with a teacher.
func (r *StudentRepository) ListStudentsByTeacher(ctx context.Context, teacherID string) ([]models.Student, error) {
	if teacherID == "" {
		return nil, fmt.Errorf("%w: teacher ID is required", ErrValidation)
	}

	docs, err := r.store.Collection(StudentsCollection).Query().
		Where("idDocente", "==", teacherID).
		OrderBy("nombre", false).
		Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}

	students := make([]models.Student, 0, len(docs))
	for _, doc := range docs {
		students = append(students, mapper.StudentFromDoc(doc))
	}
	return students, nil
}

// UpdateStudent merges tutor-editable fields onto the student record.
func (r *StudentRepository) UpdateStudent(ctx context.Context, s models.Student) error {
	if s.ID == "" {
		return fmt.Errorf("%w: student ID is required", ErrValidation)
	}

	err := r.store.Collection(StudentsCollection).Doc(s.ID).Merge(ctx, map[string]any{
		"nombre":     s.Name,
		"apellido":   s.Surname,
		"edad":       s.Age,
		"grado":      s.Grade,
		"seccion":    s.Section,
		"fotoPerfil": s.PhotoURL,
	})
	if err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}
	return nil
}
