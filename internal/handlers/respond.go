package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"palabritas/internal/repository"
	"palabritas/internal/service"
	"palabritas/internal/validation"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

var errDifficultyRange = errors.New("difficulty must be between 1 and 5")

func respondError(w http.ResponseWriter, status int, userMsg string, err error) {
	if err != nil {
		log.Printf("%s: %v", userMsg, err)
	}
	respondJSON(w, status, errorResponse{Error: userMsg})
}

// respondServiceError maps domain errors onto HTTP statuses.
func respondServiceError(w http.ResponseWriter, err error) {
	var validationErr validation.ValidationError

	switch {
	case errors.Is(err, repository.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found", err)
	case errors.Is(err, repository.ErrDuplicateAssignment):
		respondError(w, http.StatusConflict, "word already assigned to student", err)
	case errors.Is(err, repository.ErrValidation), errors.As(err, &validationErr):
		respondError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, service.ErrEmailTaken):
		respondError(w, http.StatusConflict, "email already taken", nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "invalid credentials", nil)
	default:
		respondError(w, http.StatusInternalServerError, "internal error", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	return true
}
