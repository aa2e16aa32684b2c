package service

import (
	"context"
	"strings"

	"palabritas/internal/models"
	"palabritas/internal/repository"
	"palabritas/internal/validation"
)

// WordService handles the word catalog.
type WordService struct {
	wordRepo *repository.WordRepository
}

// NewWordService creates a new word service.
func NewWordService(wordRepo *repository.WordRepository) *WordService {
	return &WordService{wordRepo: wordRepo}
}

// AddWord adds a word to the catalog.
func (s *WordService) AddWord(ctx context.Context, word models.Word) (string, error) {
	if strings.TrimSpace(word.Text) == "" {
		return "", validation.ValidationError{Field: "text", Message: "word text is required"}
	}
	if err := validation.ValidateDifficulty(word.Difficulty); err != nil {
		return "", err
	}
	return s.wordRepo.CreateWord(ctx, word)
}

// Search returns catalog words narrowed by difficulty and text query.
func (s *WordService) Search(ctx context.Context, difficulty int, query string) ([]models.Word, error) {
	if err := validation.ValidateDifficulty(difficulty); err != nil {
		return nil, err
	}
	return s.wordRepo.ListWords(ctx, difficulty, query)
}

// GetWord loads one catalog word.
func (s *WordService) GetWord(ctx context.Context, wordID string) (*models.Word, error) {
	return s.wordRepo.GetWord(ctx, wordID)
}
