package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"palabritas/internal/mapper"
	"palabritas/internal/models"
	"palabritas/internal/store"
)

// WordRepository handles store operations for the word catalog.
type WordRepository struct {
	store store.Store
}

// NewWordRepository creates a new word repository.
func NewWordRepository(st store.Store) *WordRepository {
	return &WordRepository{store: st}
}

// CreateWord persists a new catalog word and returns the store-generated ID.
func (r *WordRepository) CreateWord(ctx context.Context, w models.Word) (string, error) {
	if strings.TrimSpace(w.Text) == "" {
		return "", fmt.Errorf("%w: word text is required", ErrValidation)
	}

	data := mapper.WordToDoc(w)
	data["fechaCreacion"] = store.ServerTimestamp

	id, err := r.store.Collection(WordsCollection).Add(ctx, data)
	if err != nil {
		return "", fmt.Errorf("failed to create word: %w", err)
	}
	return id, nil
}

// GetWord loads one catalog word by ID.
func (r *WordRepository) GetWord(ctx context.Context, wordID string) (*models.Word, error) {
	data, err := r.store.Collection(WordsCollection).Doc(wordID).Get(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("word %s: %w", wordID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get word: %w", err)
	}

	w := mapper.WordFromDoc(store.Document{ID: wordID, Data: data})
	return &w, nil
}

// ListWords returns catalog words, optionally narrowed by difficulty and a
// case-insensitive substring of the word text. The text match runs
// client-side; the store only indexes equality on difficulty.
func (r *WordRepository) ListWords(ctx context.Context, difficulty int, query string) ([]models.Word, error) {
	q := r.store.Collection(WordsCollection).Query()
	if difficulty > 0 {
		q = q.Where("dificultad", "==", int64(difficulty))
	}

	docs, err := q.OrderBy("texto", false).Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query words: %w", err)
	}

	query = strings.ToLower(strings.TrimSpace(query))
	words := make([]models.Word, 0, len(docs))
	for _, doc := range docs {
		w := mapper.WordFromDoc(doc)
		if query != "" && !strings.Contains(strings.ToLower(w.Text), query) {
			continue
		}
		words = append(words, w)
	}
	return words, nil
}
