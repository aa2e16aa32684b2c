package handlers

import (
	"net/http"
	"strconv"

	"palabritas/internal/service"
	"palabritas/internal/tutor"
)

// ChatHandler serves the AI reading tutor and the camera game's word check.
type ChatHandler struct {
	tutorService *tutor.Service
	wordService  *service.WordService
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(tutorService *tutor.Service, wordService *service.WordService) *ChatHandler {
	return &ChatHandler{
		tutorService: tutorService,
		wordService:  wordService,
	}
}

type chatRequest struct {
	Question string `json:"question"`
}

// Ask handles POST /api/chat. The asking student comes from the session.
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	if !h.tutorService.Enabled() {
		respondError(w, http.StatusNotFound, "tutor is not configured", nil)
		return
	}

	student := GetStudentFromContext(r.Context())
	if student == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	words, err := h.wordService.Search(r.Context(), 0, "")
	if err != nil {
		respondServiceError(w, err)
		return
	}

	reply, err := h.tutorService.Ask(r.Context(), *student, words, req.Question)
	if err != nil {
		respondError(w, http.StatusBadGateway, "tutor request failed", err)
		return
	}

	resp := map[string]any{"text": reply.Text}
	if reply.SuggestedWord != nil {
		resp["suggestedWord"] = wordResponse(*reply.SuggestedWord)
	}
	respondJSON(w, http.StatusOK, resp)
}

type recognizeRequest struct {
	Target     string `json:"target"`
	Recognized string `json:"recognized"`
}

// CheckRecognition handles POST /api/recognize/check: the camera game posts
// the platform recognizer's text and the target word, the server answers
// whether the normalized text contains the word.
func (h *ChatHandler) CheckRecognition(w http.ResponseWriter, r *http.Request) {
	var req recognizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{
		"match": service.MatchesWord(req.Target, req.Recognized),
	})
}

func parseDifficulty(raw string) (int, error) {
	d, err := strconv.Atoi(raw)
	if err != nil || d < 1 || d > 5 {
		return 0, errDifficultyRange
	}
	return d, nil
}
