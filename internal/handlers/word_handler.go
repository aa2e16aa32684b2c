package handlers

import (
	"net/http"

	"palabritas/internal/models"
	"palabritas/internal/service"
)

// WordHandler serves the word catalog.
type WordHandler struct {
	wordService *service.WordService
}

// NewWordHandler creates a new word handler.
func NewWordHandler(wordService *service.WordService) *WordHandler {
	return &WordHandler{wordService: wordService}
}

type wordRequest struct {
	Text       string `json:"text"`
	ImageURL   string `json:"imageUrl"`
	AudioURL   string `json:"audioUrl"`
	Difficulty int    `json:"difficulty"`
}

// Create handles POST /api/words.
func (h *WordHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req wordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id, err := h.wordService.AddWord(r.Context(), models.Word{
		Text:       req.Text,
		ImageURL:   req.ImageURL,
		AudioURL:   req.AudioURL,
		Difficulty: req.Difficulty,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"id": id})
}

// List handles GET /api/words?difficulty=&q=.
func (h *WordHandler) List(w http.ResponseWriter, r *http.Request) {
	difficulty := 0
	if raw := r.URL.Query().Get("difficulty"); raw != "" {
		d, err := parseDifficulty(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		difficulty = d
	}

	words, err := h.wordService.Search(r.Context(), difficulty, r.URL.Query().Get("q"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := make([]map[string]any, 0, len(words))
	for _, word := range words {
		out = append(out, wordResponse(word))
	}
	respondJSON(w, http.StatusOK, out)
}

// Get handles GET /api/words/{id}.
func (h *WordHandler) Get(w http.ResponseWriter, r *http.Request) {
	word, err := h.wordService.GetWord(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, wordResponse(*word))
}
