package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"palabritas/internal/mapper"
	"palabritas/internal/models"
	"palabritas/internal/store"
)

// AssignmentSnapshot is one delivery from a live assignment view. Err is set
// when the underlying watch degraded; Assignments is empty in that case, so
// callers can tell "errored" from "genuinely empty".
type AssignmentSnapshot struct {
	Assignments []models.Assignment
	Err         error
}

// StudentSnapshot is one delivery from a live student view.
type StudentSnapshot struct {
	Students []models.Student
	Err      error
}

// FilterAssignments drops completed assignments (including legacy COMPLETADO
// documents, which parse to the completed status) and, when query is
// non-empty, keeps only assignments whose word text contains it
// case-insensitively.
func FilterAssignments(assignments []models.Assignment, query string) []models.Assignment {
	query = strings.ToLower(strings.TrimSpace(query))

	filtered := make([]models.Assignment, 0, len(assignments))
	for _, a := range assignments {
		if a.Status == models.StatusCompleted {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(a.WordText), query) {
			continue
		}
		filtered = append(filtered, a)
	}
	return filtered
}

// WatchFilteredAssignmentsByStudent subscribes to the student's assignments,
// newest first, optionally narrowed server-side by difficulty, and filters
// each delivery client-side per FilterAssignments. Store errors degrade to
// an empty delivery with Err set; the stream never terminates on store
// error. A blank student ID is rejected up front, as in the one-shot list:
// the stream delivers one validation-errored snapshot and closes. The
// returned stop function releases the underlying watch.
func (r *AssignmentRepository) WatchFilteredAssignmentsByStudent(ctx context.Context, studentID string, difficulty int, query string) (<-chan AssignmentSnapshot, func()) {
	if studentID == "" {
		out := make(chan AssignmentSnapshot, 1)
		out <- AssignmentSnapshot{Err: fmt.Errorf("%w: student ID is required", ErrValidation)}
		close(out)
		return out, func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan AssignmentSnapshot, 16)

	watcher := r.assignmentsByStudentQuery(studentID, difficulty).Snapshots(ctx)

	go func() {
		defer close(out)
		for {
			select {
			case snap, ok := <-watcher.Updates():
				if !ok {
					return
				}
				deliver(ctx, out, assignmentSnapshot(snap, query))
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, func() {
		cancel()
		watcher.Stop()
	}
}

func assignmentSnapshot(snap store.Snapshot, query string) AssignmentSnapshot {
	if snap.Err != nil {
		return AssignmentSnapshot{Err: snap.Err}
	}

	assignments, err := mapAssignments(snap.Docs)
	if err != nil {
		return AssignmentSnapshot{Err: err}
	}
	return AssignmentSnapshot{Assignments: FilterAssignments(assignments, query)}
}

// WatchStudentsAssignedToWord is a two-stage dependent subscription: stage
// one watches assignments for the word to collect distinct student IDs,
// stage two watches the matching student records. Whenever the ID set
// changes, the prior student subscription is cancelled and replaced
// (switch-latest). IDs are chunked to the store's "in" query limit instead
// of silently truncating beyond it.
func (r *AssignmentRepository) WatchStudentsAssignedToWord(ctx context.Context, wordID string) (<-chan StudentSnapshot, func()) {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan StudentSnapshot, 16)

	stageOne := r.store.Collection(AssignmentsCollection).Query().
		Where("idPalabra", "==", wordID).
		Snapshots(ctx)

	go func() {
		defer close(out)

		var (
			current     []string
			stageCancel context.CancelFunc
		)
		defer func() {
			if stageCancel != nil {
				stageCancel()
			}
		}()

		for {
			select {
			case snap, ok := <-stageOne.Updates():
				if !ok {
					return
				}
				if snap.Err != nil {
					deliver(ctx, out, StudentSnapshot{Err: snap.Err})
					continue
				}

				ids := distinctStudentIDs(snap.Docs)
				if equalIDs(ids, current) {
					continue
				}
				current = ids

				if stageCancel != nil {
					stageCancel()
				}
				if len(ids) == 0 {
					stageCancel = nil
					deliver(ctx, out, StudentSnapshot{})
					continue
				}

				stageCtx, nextCancel := context.WithCancel(ctx)
				stageCancel = nextCancel
				r.watchStudentsByIDs(stageCtx, ids, out)
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, func() {
		cancel()
		stageOne.Stop()
	}
}

// watchStudentsByIDs runs one student watch per chunk of at most
// store.InQueryLimit IDs and emits the merged result set, in ID order, on
// every chunk update.
func (r *AssignmentRepository) watchStudentsByIDs(ctx context.Context, ids []string, out chan<- StudentSnapshot) {
	chunks := chunkIDs(ids, store.InQueryLimit)

	var (
		mu      sync.Mutex
		byChunk = make([][]models.Student, len(chunks))
	)

	emit := func(err error) {
		mu.Lock()
		byID := make(map[string]models.Student)
		for _, students := range byChunk {
			for _, s := range students {
				byID[s.ID] = s
			}
		}
		mu.Unlock()

		merged := make([]models.Student, 0, len(byID))
		for _, id := range ids {
			if s, ok := byID[id]; ok {
				merged = append(merged, s)
			}
		}
		deliver(ctx, out, StudentSnapshot{Students: merged, Err: err})
	}

	for i, chunk := range chunks {
		watcher := r.store.Collection(StudentsCollection).Query().
			Where(store.DocumentID, "in", chunk).
			Snapshots(ctx)

		go func(index int) {
			defer watcher.Stop()
			for {
				select {
				case snap, ok := <-watcher.Updates():
					if !ok {
						return
					}
					if snap.Err != nil {
						emit(snap.Err)
						continue
					}

					students := make([]models.Student, 0, len(snap.Docs))
					for _, doc := range snap.Docs {
						students = append(students, mapper.StudentFromDoc(doc))
					}

					mu.Lock()
					byChunk[index] = students
					mu.Unlock()
					emit(nil)
				case <-ctx.Done():
					return
				}
			}
		}(i)
	}
}

func distinctStudentIDs(docs []store.Document) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, doc := range docs {
		id, _ := doc.Data["idEstudiante"].(string)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func chunkIDs(ids []string, size int) [][]string {
	var chunks [][]string
	for len(ids) > size {
		chunks = append(chunks, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}

func deliver[T any](ctx context.Context, out chan<- T, v T) {
	select {
	case out <- v:
	case <-ctx.Done():
	}
}
