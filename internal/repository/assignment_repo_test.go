package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"palabritas/internal/models"
	"palabritas/internal/store/memstore"
)

func seedStudent(t *testing.T, m *memstore.Memstore, id, name string) {
	t.Helper()
	err := m.Collection(StudentsCollection).Doc(id).Merge(context.Background(), map[string]any{
		"nombre":  name,
		"idTutor": "tutor1",
	})
	if err != nil {
		t.Fatalf("failed to seed student %s: %v", id, err)
	}
}

func TestIsWordAlreadyAssigned(t *testing.T) {
	ctx := context.Background()
	m := memstore.New()
	repo := NewAssignmentRepository(m)

	assigned, err := repo.IsWordAlreadyAssigned(ctx, "s1", "w1")
	if err != nil {
		t.Fatalf("IsWordAlreadyAssigned() error: %v", err)
	}
	if assigned {
		t.Error("no assignments yet, guard reported a duplicate")
	}

	if _, err := repo.CreateAssignment(ctx, models.Assignment{StudentID: "s1", WordID: "w1"}); err != nil {
		t.Fatalf("CreateAssignment() error: %v", err)
	}

	assigned, err = repo.IsWordAlreadyAssigned(ctx, "s1", "w1")
	if err != nil {
		t.Fatalf("IsWordAlreadyAssigned() error: %v", err)
	}
	if !assigned {
		t.Error("existing assignment not detected by the guard")
	}

	// same word, different student is not a duplicate
	assigned, _ = repo.IsWordAlreadyAssigned(ctx, "s2", "w1")
	if assigned {
		t.Error("assignment for another student reported as duplicate")
	}
}

func TestIsWordAlreadyAssignedSurfacesQueryErrors(t *testing.T) {
	m := memstore.New()
	repo := NewAssignmentRepository(m)

	boom := errors.New("store unavailable")
	m.FailCollection(AssignmentsCollection, boom)

	_, err := repo.IsWordAlreadyAssigned(context.Background(), "s1", "w1")
	if !errors.Is(err, boom) {
		t.Errorf("IsWordAlreadyAssigned() error = %v, want the store failure", err)
	}
}

func TestCreateAssignment(t *testing.T) {
	ctx := context.Background()
	m := memstore.New()
	repo := NewAssignmentRepository(m)
	seedStudent(t, m, "s1", "Ana")

	id, err := repo.CreateAssignment(ctx, models.Assignment{
		TeacherID: "t1",
		StudentID: "s1",
		WordID:    "w1",
		WordText:  "Gato",
	})
	if err != nil {
		t.Fatalf("CreateAssignment() error: %v", err)
	}
	if id == "" {
		t.Fatal("CreateAssignment() returned empty ID")
	}

	a, err := repo.GetAssignment(ctx, id)
	if err != nil {
		t.Fatalf("GetAssignment() error: %v", err)
	}
	if a.Status != models.StatusPending {
		t.Errorf("Status = %v, want PENDING default", a.Status)
	}
	if a.AssignedAt.IsZero() {
		t.Error("AssignedAt not server-assigned")
	}

	// the teacher association was merged onto the student record
	data, err := m.Collection(StudentsCollection).Doc("s1").Get(ctx)
	if err != nil {
		t.Fatalf("student Get() error: %v", err)
	}
	if data["idDocente"] != "t1" {
		t.Errorf("student idDocente = %v, want t1", data["idDocente"])
	}
	if data["nombre"] != "Ana" {
		t.Errorf("student nombre = %v, merge clobbered existing fields", data["nombre"])
	}
}

func TestCreateAssignmentValidation(t *testing.T) {
	repo := NewAssignmentRepository(memstore.New())

	_, err := repo.CreateAssignment(context.Background(), models.Assignment{StudentID: "s1"})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("CreateAssignment() without word ID error = %v, want ErrValidation", err)
	}
}

func TestCreateAssignmentSurvivesAssociationFailure(t *testing.T) {
	ctx := context.Background()
	m := memstore.New()
	repo := NewAssignmentRepository(m)

	boom := errors.New("students collection down")
	m.FailCollection(StudentsCollection, boom)

	id, err := repo.CreateAssignment(ctx, models.Assignment{
		TeacherID: "t1",
		StudentID: "s1",
		WordID:    "w1",
	})
	if err != nil {
		t.Fatalf("CreateAssignment() error = %v, association failure must not fail creation", err)
	}
	if id == "" {
		t.Fatal("CreateAssignment() returned empty ID")
	}

	select {
	case failure := <-repo.AssociationFailures():
		if failure.AssignmentID != id || failure.StudentID != "s1" || !errors.Is(failure.Err, boom) {
			t.Errorf("AssociationFailures() = %+v", failure)
		}
	case <-time.After(time.Second):
		t.Error("association failure not published")
	}
}

func TestCompleteAssignment(t *testing.T) {
	ctx := context.Background()
	m := memstore.New()
	repo := NewAssignmentRepository(m)
	seedStudent(t, m, "s1", "Ana")

	id, err := repo.CreateAssignment(ctx, models.Assignment{
		TeacherID: "t1",
		StudentID: "s1",
		WordID:    "w1",
		WordText:  "Gato",
		ImageURL:  "https://img/gato.png",
	})
	if err != nil {
		t.Fatalf("CreateAssignment() error: %v", err)
	}

	if err := repo.CompleteAssignment(ctx, id); err != nil {
		t.Fatalf("CompleteAssignment() error: %v", err)
	}

	a, err := repo.GetAssignment(ctx, id)
	if err != nil {
		t.Fatalf("GetAssignment() error: %v", err)
	}
	if a.Status != models.StatusCompleted {
		t.Errorf("Status = %v, want COMPLETED", a.Status)
	}
	if a.CompletedAt == nil {
		t.Error("CompletedAt not stamped")
	}

	entries, err := repo.GetDictionary(ctx, "s1")
	if err != nil {
		t.Fatalf("GetDictionary() error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("dictionary has %d entries, want 1", len(entries))
	}
	entry := entries[0]
	if entry.WordID != "w1" || entry.WordText != "Gato" || entry.ImageURL != "https://img/gato.png" {
		t.Errorf("dictionary entry = %+v", entry)
	}
	if entry.PlayCount != 1 || entry.SuccessCount != 1 {
		t.Errorf("counters = %d/%d, want 1/1", entry.PlayCount, entry.SuccessCount)
	}
	if entry.AddedAt.IsZero() || entry.LastReviewedAt.IsZero() {
		t.Error("dictionary timestamps not server-assigned")
	}
}

// Completing twice increments the counters twice. The double-count is
// long-standing client behavior; this test pins it so a change is a
// deliberate decision, not an accident.
func TestCompleteAssignmentIsNotIdempotent(t *testing.T) {
	ctx := context.Background()
	m := memstore.New()
	repo := NewAssignmentRepository(m)
	seedStudent(t, m, "s1", "Ana")

	id, err := repo.CreateAssignment(ctx, models.Assignment{
		StudentID: "s1",
		WordID:    "w1",
		WordText:  "Gato",
	})
	if err != nil {
		t.Fatalf("CreateAssignment() error: %v", err)
	}

	if err := repo.CompleteAssignment(ctx, id); err != nil {
		t.Fatalf("first CompleteAssignment() error: %v", err)
	}
	if err := repo.CompleteAssignment(ctx, id); err != nil {
		t.Fatalf("second CompleteAssignment() error: %v", err)
	}

	entries, err := repo.GetDictionary(ctx, "s1")
	if err != nil {
		t.Fatalf("GetDictionary() error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("dictionary has %d entries, want 1", len(entries))
	}
	if entries[0].PlayCount != 2 || entries[0].SuccessCount != 2 {
		t.Errorf("counters = %d/%d, want 2/2 after double completion",
			entries[0].PlayCount, entries[0].SuccessCount)
	}
}

func TestCompleteAssignmentNotFound(t *testing.T) {
	repo := NewAssignmentRepository(memstore.New())

	err := repo.CompleteAssignment(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("CompleteAssignment() error = %v, want ErrNotFound", err)
	}
}

func TestListFilteredAssignmentsByStudent(t *testing.T) {
	ctx := context.Background()
	m := memstore.New()
	repo := NewAssignmentRepository(m)

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	seed := map[string]map[string]any{
		"a1": {"idEstudiante": "s1", "idPalabra": "w1", "textoPalabra": "Gato", "estado": "PENDING", "dificultad": 2, "fechaAsignacion": base},
		"a2": {"idEstudiante": "s1", "idPalabra": "w2", "textoPalabra": "Perro", "estado": "PENDING", "dificultad": 3, "fechaAsignacion": base.Add(time.Hour)},
		"a3": {"idEstudiante": "s1", "idPalabra": "w3", "textoPalabra": "Oso", "estado": "COMPLETADO", "dificultad": 2, "fechaAsignacion": base.Add(2 * time.Hour)},
		"a4": {"idEstudiante": "s2", "idPalabra": "w1", "textoPalabra": "Gato", "estado": "PENDING", "dificultad": 2, "fechaAsignacion": base},
		"a5": {"idEstudiante": "s1", "idPalabra": "w4", "textoPalabra": "Luna", "estado": "COMPLETED", "dificultad": 2, "fechaAsignacion": base.Add(3 * time.Hour)},
	}
	for id, data := range seed {
		if err := m.Collection(AssignmentsCollection).Doc(id).Merge(ctx, data); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}

	t.Run("excludes completed, newest first", func(t *testing.T) {
		// both completed spellings are dropped, COMPLETED and legacy COMPLETADO
		got, err := repo.ListFilteredAssignmentsByStudent(ctx, "s1", 0, "")
		if err != nil {
			t.Fatalf("ListFilteredAssignmentsByStudent() error: %v", err)
		}
		if len(got) != 2 || got[0].ID != "a2" || got[1].ID != "a1" {
			t.Errorf("assignments = %v, want [a2 a1]", assignmentIDs(got))
		}
	})

	t.Run("case-insensitive substring", func(t *testing.T) {
		got, err := repo.ListFilteredAssignmentsByStudent(ctx, "s1", 0, "gAt")
		if err != nil {
			t.Fatalf("ListFilteredAssignmentsByStudent() error: %v", err)
		}
		if len(got) != 1 || got[0].WordText != "Gato" {
			t.Errorf("assignments = %v, want only Gato", assignmentIDs(got))
		}
	})

	t.Run("difficulty narrows server-side", func(t *testing.T) {
		got, err := repo.ListFilteredAssignmentsByStudent(ctx, "s1", 3, "")
		if err != nil {
			t.Fatalf("ListFilteredAssignmentsByStudent() error: %v", err)
		}
		if len(got) != 1 || got[0].ID != "a2" {
			t.Errorf("assignments = %v, want [a2]", assignmentIDs(got))
		}
	})

	t.Run("unknown status fails loudly", func(t *testing.T) {
		err := m.Collection(AssignmentsCollection).Doc("bad").Merge(ctx, map[string]any{
			"idEstudiante": "s3", "estado": "ARCHIVADA",
		})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}

		if _, err := repo.ListFilteredAssignmentsByStudent(ctx, "s3", 0, ""); err == nil {
			t.Error("malformed status document should fail the list, not be skipped")
		}
	})
}

func TestGetDictionaryOrdering(t *testing.T) {
	ctx := context.Background()
	m := memstore.New()
	repo := NewAssignmentRepository(m)

	base := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	dict := m.Collection(StudentsCollection, "s1", DictionaryCollection)
	dict.Doc("w1").Merge(ctx, map[string]any{"textoPalabra": "Gato", "fechaAgregado": base})
	dict.Doc("w2").Merge(ctx, map[string]any{"textoPalabra": "Perro", "fechaAgregado": base.Add(time.Hour)})

	entries, err := repo.GetDictionary(ctx, "s1")
	if err != nil {
		t.Fatalf("GetDictionary() error: %v", err)
	}
	if len(entries) != 2 || entries[0].WordID != "w2" || entries[1].WordID != "w1" {
		t.Errorf("entries not newest-first: %+v", entries)
	}
}

func assignmentIDs(assignments []models.Assignment) []string {
	ids := make([]string, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.ID)
	}
	return ids
}
