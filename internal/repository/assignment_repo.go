package repository

import (
	"context"
	"errors"
	"fmt"
	"log"

	"palabritas/internal/mapper"
	"palabritas/internal/models"
	"palabritas/internal/store"
)

// Collection names in the document store.
const (
	AssignmentsCollection = "asignaciones"
	StudentsCollection    = "estudiantes"
	DictionaryCollection  = "diccionario"
	WordsCollection       = "palabras"
	UsersCollection       = "usuarios"
	SessionsCollection    = "sesiones"
)

// AssociationFailure reports a failed teacher-association merge during
// assignment creation. The merge is best-effort; creation succeeds anyway.
type AssociationFailure struct {
	AssignmentID string
	TeacherID    string
	StudentID    string
	Err          error
}

// AssignmentRepository orchestrates reads and writes across the assignment,
// student and per-student dictionary collections. It is the sole writer of
// assignment-status transitions and dictionary projections.
type AssignmentRepository struct {
	store       store.Store
	assocFailed chan AssociationFailure
}

// NewAssignmentRepository creates a new assignment repository.
func NewAssignmentRepository(st store.Store) *AssignmentRepository {
	return &AssignmentRepository{
		store:       st,
		assocFailed: make(chan AssociationFailure, 16),
	}
}

// AssociationFailures exposes failed teacher-association merges to callers
// that want to observe them. Deliveries are dropped when nobody reads.
func (r *AssignmentRepository) AssociationFailures() <-chan AssociationFailure {
	return r.assocFailed
}

// IsWordAlreadyAssigned reports whether the student already has an
// assignment for the word, in any status.
//
// This is an advisory check, not a storage constraint: two concurrent
// creations for the same pair can both pass it. Query failures are returned
// to the caller instead of silently permitting the write; the service layer
// decides whether to fail open.
func (r *AssignmentRepository) IsWordAlreadyAssigned(ctx context.Context, studentID, wordID string) (bool, error) {
	if studentID == "" || wordID == "" {
		return false, fmt.Errorf("%w: student and word IDs are required", ErrValidation)
	}

	docs, err := r.store.Collection(AssignmentsCollection).Query().
		Where("idEstudiante", "==", studentID).
		Where("idPalabra", "==", wordID).
		Documents(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to query assignments: %w", err)
	}
	return len(docs) > 0, nil
}

// CreateAssignment persists a new assignment with a server-assigned creation
// timestamp and a store-generated ID, then merges the teacher ID onto the
// student record when both IDs are present.
//
// The teacher-association merge is best-effort: its failure is logged and
// published on AssociationFailures but never fails the creation.
func (r *AssignmentRepository) CreateAssignment(ctx context.Context, a models.Assignment) (string, error) {
	if a.StudentID == "" || a.WordID == "" {
		return "", fmt.Errorf("%w: student and word IDs are required", ErrValidation)
	}
	if a.Status == "" {
		a.Status = models.StatusPending
	}

	data := mapper.AssignmentToDoc(a)
	data["fechaAsignacion"] = store.ServerTimestamp

	id, err := r.store.Collection(AssignmentsCollection).Add(ctx, data)
	if err != nil {
		return "", fmt.Errorf("failed to create assignment: %w", err)
	}

	if a.TeacherID != "" && a.StudentID != "" {
		err := r.store.Collection(StudentsCollection).Doc(a.StudentID).Merge(ctx, map[string]any{
			"idDocente": a.TeacherID,
		})
		if err != nil {
			log.Printf("failed to associate teacher %s with student %s: %v", a.TeacherID, a.StudentID, err)
			select {
			case r.assocFailed <- AssociationFailure{
				AssignmentID: id,
				TeacherID:    a.TeacherID,
				StudentID:    a.StudentID,
				Err:          err,
			}:
			default:
			}
		}
	}

	return id, nil
}

// CompleteAssignment flips the assignment to COMPLETED, stamps the
// completion timestamp, and upserts the word into the student's personal
// dictionary with atomic play/success counter increments.
//
// The two writes are sequential, not transactional: if the dictionary upsert
// fails the status flip is not rolled back. Completion is also not
// idempotent: completing an already-completed assignment increments the
// dictionary counters again. Both behaviors match the mobile clients in the
// field and are asserted by tests so any future change is deliberate.
func (r *AssignmentRepository) CompleteAssignment(ctx context.Context, assignmentID string) error {
	if assignmentID == "" {
		return fmt.Errorf("%w: assignment ID is required", ErrValidation)
	}

	doc := r.store.Collection(AssignmentsCollection).Doc(assignmentID)
	data, err := doc.Get(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("assignment %s: %w", assignmentID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load assignment: %w", err)
	}

	a, err := mapper.AssignmentFromDoc(store.Document{ID: assignmentID, Data: data})
	if err != nil {
		return err
	}

	err = doc.Merge(ctx, map[string]any{
		"estado":          string(models.StatusCompleted),
		"fechaCompletado": store.ServerTimestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to complete assignment: %w", err)
	}

	if a.StudentID == "" || a.WordID == "" {
		return nil
	}

	err = r.store.Collection(StudentsCollection, a.StudentID, DictionaryCollection).
		Doc(a.WordID).
		Merge(ctx, map[string]any{
			"textoPalabra":      a.WordText,
			"imagenURL":         a.ImageURL,
			"audioURL":          a.AudioURL,
			"fechaAgregado":     store.ServerTimestamp,
			"fechaUltimoRepaso": store.ServerTimestamp,
			"vecesJugado":       store.Increment(1),
			"vecesAcertado":     store.Increment(1),
		})
	if err != nil {
		return fmt.Errorf("failed to update personal dictionary: %w", err)
	}
	return nil
}

// GetAssignment loads one assignment by ID.
func (r *AssignmentRepository) GetAssignment(ctx context.Context, assignmentID string) (*models.Assignment, error) {
	data, err := r.store.Collection(AssignmentsCollection).Doc(assignmentID).Get(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("assignment %s: %w", assignmentID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	a, err := mapper.AssignmentFromDoc(store.Document{ID: assignmentID, Data: data})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListFilteredAssignmentsByStudent is the one-shot form of
// WatchFilteredAssignmentsByStudent: assignments for the student, newest
// first, with completed items and non-matching word texts filtered out.
func (r *AssignmentRepository) ListFilteredAssignmentsByStudent(ctx context.Context, studentID string, difficulty int, query string) ([]models.Assignment, error) {
	if studentID == "" {
		return nil, fmt.Errorf("%w: student ID is required", ErrValidation)
	}

	docs, err := r.assignmentsByStudentQuery(studentID, difficulty).Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}

	assignments, err := mapAssignments(docs)
	if err != nil {
		return nil, err
	}
	return FilterAssignments(assignments, query), nil
}

// GetDictionary loads a student's personal dictionary, most recently added
// first.
func (r *AssignmentRepository) GetDictionary(ctx context.Context, studentID string) ([]models.DictionaryEntry, error) {
	if studentID == "" {
		return nil, fmt.Errorf("%w: student ID is required", ErrValidation)
	}

	docs, err := r.store.Collection(StudentsCollection, studentID, DictionaryCollection).Query().
		OrderBy("fechaAgregado", true).
		Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query dictionary: %w", err)
	}

	entries := make([]models.DictionaryEntry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, mapper.DictionaryEntryFromDoc(doc))
	}
	return entries, nil
}

func (r *AssignmentRepository) assignmentsByStudentQuery(studentID string, difficulty int) store.Query {
	q := r.store.Collection(AssignmentsCollection).Query().
		Where("idEstudiante", "==", studentID)
	if difficulty > 0 {
		q = q.Where("dificultad", "==", int64(difficulty))
	}
	return q.OrderBy("fechaAsignacion", true)
}

func mapAssignments(docs []store.Document) ([]models.Assignment, error) {
	assignments := make([]models.Assignment, 0, len(docs))
	for _, doc := range docs {
		a, err := mapper.AssignmentFromDoc(doc)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, nil
}
