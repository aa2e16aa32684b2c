package handlers

import (
	"net/http"

	"palabritas/internal/models"
	"palabritas/internal/service"
)

// StudentHandler serves student management and student read models.
type StudentHandler struct {
	studentService *service.StudentService
}

// NewStudentHandler creates a new student handler.
func NewStudentHandler(studentService *service.StudentService) *StudentHandler {
	return &StudentHandler{studentService: studentService}
}

type studentRequest struct {
	Name          string `json:"name"`
	Surname       string `json:"surname"`
	Age           int    `json:"age"`
	Grade         string `json:"grade"`
	Section       string `json:"section"`
	InstitutionID string `json:"institutionId"`
	PhotoURL      string `json:"photoUrl"`
	InviteEmail   string `json:"inviteEmail"`
}

// Create handles POST /api/students. The tutor comes from the session.
func (h *StudentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tutor := GetUserFromContext(r.Context())
	student, err := h.studentService.RegisterStudent(r.Context(), tutor.ID, models.Student{
		Name:          req.Name,
		Surname:       req.Surname,
		Age:           req.Age,
		Grade:         req.Grade,
		Section:       req.Section,
		InstitutionID: req.InstitutionID,
		PhotoURL:      req.PhotoURL,
	}, req.InviteEmail)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, studentResponse(*student))
}

// Update handles PUT /api/students/{id}.
func (h *StudentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tutor := GetUserFromContext(r.Context())
	err := h.studentService.UpdateStudent(r.Context(), tutor.ID, models.Student{
		ID:       r.PathValue("id"),
		Name:     req.Name,
		Surname:  req.Surname,
		Age:      req.Age,
		Grade:    req.Grade,
		Section:  req.Section,
		PhotoURL: req.PhotoURL,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// List handles GET /api/students: the caller's students (tutor or teacher).
func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var (
		students []models.Student
		err      error
	)
	if user.Role == models.RoleTeacher {
		students, err = h.studentService.StudentsForTeacher(r.Context(), user.ID)
	} else {
		students, err = h.studentService.StudentsForTutor(r.Context(), user.ID)
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := make([]map[string]any, 0, len(students))
	for _, s := range students {
		out = append(out, studentResponse(s))
	}
	respondJSON(w, http.StatusOK, out)
}

// Dictionary handles GET /api/students/{id}/dictionary.
func (h *StudentHandler) Dictionary(w http.ResponseWriter, r *http.Request) {
	entries, err := h.studentService.PersonalDictionary(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]any{
			"wordId":         e.WordID,
			"wordText":       e.WordText,
			"imageUrl":       e.ImageURL,
			"audioUrl":       e.AudioURL,
			"addedAt":        e.AddedAt,
			"lastReviewedAt": e.LastReviewedAt,
			"playCount":      e.PlayCount,
			"successCount":   e.SuccessCount,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func studentResponse(s models.Student) map[string]any {
	return map[string]any{
		"id":            s.ID,
		"name":          s.Name,
		"surname":       s.Surname,
		"age":           s.Age,
		"grade":         s.Grade,
		"section":       s.Section,
		"tutorId":       s.TutorID,
		"teacherId":     s.TeacherID,
		"institutionId": s.InstitutionID,
		"photoUrl":      s.PhotoURL,
		"accessCode":    s.AccessCode,
	}
}

func wordResponse(w models.Word) map[string]any {
	return map[string]any{
		"id":         w.ID,
		"text":       w.Text,
		"imageUrl":   w.ImageURL,
		"audioUrl":   w.AudioURL,
		"difficulty": w.Difficulty,
	}
}
