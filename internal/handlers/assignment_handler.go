package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"palabritas/internal/models"
	"palabritas/internal/repository"
	"palabritas/internal/service"
)

// AssignmentHandler serves the assignment lifecycle endpoints.
type AssignmentHandler struct {
	assignmentService *service.AssignmentService
	assignmentRepo    *repository.AssignmentRepository
}

// NewAssignmentHandler creates a new assignment handler.
func NewAssignmentHandler(assignmentService *service.AssignmentService, assignmentRepo *repository.AssignmentRepository) *AssignmentHandler {
	return &AssignmentHandler{
		assignmentService: assignmentService,
		assignmentRepo:    assignmentRepo,
	}
}

type createAssignmentRequest struct {
	StudentID string     `json:"studentId"`
	WordID    string     `json:"wordId"`
	DueAt     *time.Time `json:"dueAt"`
}

// Create handles POST /api/assignments. The teacher comes from the session.
func (h *AssignmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAssignmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	teacher := GetUserFromContext(r.Context())
	id, err := h.assignmentService.AssignWord(r.Context(), teacher.ID, req.StudentID, req.WordID, req.DueAt)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// Complete handles POST /api/assignments/{id}/complete. The completing
// student comes from the session, never the request.
func (h *AssignmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	student := GetStudentFromContext(r.Context())
	if student == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	if err := h.assignmentService.CompleteAssignment(r.Context(), r.PathValue("id"), student.ID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// List handles GET /api/assignments?studentId=&difficulty=&q=.
func (h *AssignmentHandler) List(w http.ResponseWriter, r *http.Request) {
	studentID, difficulty, query, err := listParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	assignments, err := h.assignmentService.PendingAssignments(r.Context(), studentID, difficulty, query)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, assignmentsResponse(assignments))
}

// Stream handles GET /api/assignments/stream?studentId=&difficulty=&q= as a
// Server-Sent Events feed of the live filtered assignment list.
func (h *AssignmentHandler) Stream(w http.ResponseWriter, r *http.Request) {
	studentID, difficulty, query, err := listParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming unsupported", nil)
		return
	}

	updates, stop := h.assignmentRepo.WatchFilteredAssignmentsByStudent(r.Context(), studentID, difficulty, query)
	defer stop()

	sseHeaders(w)
	for snap := range updates {
		if snap.Err != nil {
			log.Printf("assignment stream degraded for student %s: %v", studentID, snap.Err)
			sseEvent(w, "error", map[string]string{"error": "stream degraded"})
		} else {
			sseEvent(w, "assignments", assignmentsResponse(snap.Assignments))
		}
		flusher.Flush()
	}
}

// StudentsForWord handles GET /api/words/{id}/students/stream: a live feed
// of the students the word is assigned to.
func (h *AssignmentHandler) StudentsForWord(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming unsupported", nil)
		return
	}

	updates, stop := h.assignmentRepo.WatchStudentsAssignedToWord(r.Context(), r.PathValue("id"))
	defer stop()

	sseHeaders(w)
	for snap := range updates {
		if snap.Err != nil {
			log.Printf("students stream degraded for word %s: %v", r.PathValue("id"), snap.Err)
			sseEvent(w, "error", map[string]string{"error": "stream degraded"})
		} else {
			students := make([]map[string]any, 0, len(snap.Students))
			for _, s := range snap.Students {
				students = append(students, studentResponse(s))
			}
			sseEvent(w, "students", students)
		}
		flusher.Flush()
	}
}

func listParams(r *http.Request) (studentID string, difficulty int, query string, err error) {
	studentID = r.URL.Query().Get("studentId")
	if studentID == "" {
		return "", 0, "", fmt.Errorf("studentId is required")
	}

	if raw := r.URL.Query().Get("difficulty"); raw != "" {
		difficulty, err = strconv.Atoi(raw)
		if err != nil || difficulty < 1 || difficulty > 5 {
			return "", 0, "", fmt.Errorf("difficulty must be between 1 and 5")
		}
	}
	return studentID, difficulty, r.URL.Query().Get("q"), nil
}

func sseHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

func sseEvent(w http.ResponseWriter, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to encode sse payload: %v", err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}

func assignmentsResponse(assignments []models.Assignment) []map[string]any {
	out := make([]map[string]any, 0, len(assignments))
	for _, a := range assignments {
		item := map[string]any{
			"id":          a.ID,
			"teacherId":   a.TeacherID,
			"studentId":   a.StudentID,
			"wordId":      a.WordID,
			"wordText":    a.WordText,
			"imageUrl":    a.ImageURL,
			"audioUrl":    a.AudioURL,
			"difficulty":  a.Difficulty,
			"studentName": a.StudentName,
			"status":      string(a.Status),
			"assignedAt":  a.AssignedAt,
		}
		if a.DueAt != nil {
			item["dueAt"] = a.DueAt
		}
		if a.CompletedAt != nil {
			item["completedAt"] = a.CompletedAt
		}
		out = append(out, item)
	}
	return out
}
