package tutor

import (
	"context"
	"fmt"
	"strings"

	"palabritas/internal/models"
	"palabritas/internal/service"
)

const systemPrompt = `Eres un tutor de lectura amable para niñas y niños de primaria.
Responde en español, con frases cortas y sencillas.
Cuando recomiendes una palabra para practicar, usa solo palabras de la lista disponible.`

// Reply is one tutor answer. SuggestedWord is set when the model's text
// contains an exact match against the available word list.
type Reply struct {
	Text          string
	SuggestedWord *models.Word
}

// Service formats tutor prompts and scans replies for word suggestions.
type Service struct {
	client *Client
}

// NewService creates a tutor service. A nil client disables the feature.
func NewService(client *Client) *Service {
	return &Service{client: client}
}

// Enabled reports whether the tutor is configured.
func (s *Service) Enabled() bool {
	return s != nil && s.client != nil
}

// Ask sends the student's question with their context and available words.
func (s *Service) Ask(ctx context.Context, student models.Student, words []models.Word, question string) (*Reply, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("tutor is not configured")
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is required")
	}

	text, err := s.client.Complete(ctx, systemPrompt, BuildPrompt(student, words, question))
	if err != nil {
		return nil, err
	}

	return &Reply{
		Text:          text,
		SuggestedWord: FindSuggestedWord(text, words),
	}, nil
}

// BuildPrompt formats the student context, the available word list and the
// free-text question into the user message.
func BuildPrompt(student models.Student, words []models.Word, question string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Estudiante: %s, %d años, grado %s.\n", student.FullName(), student.Age, student.Grade)

	if len(words) > 0 {
		b.WriteString("Palabras disponibles: ")
		for i, w := range words {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(w.Text)
		}
		b.WriteString(".\n")
	}

	b.WriteString("Pregunta: ")
	b.WriteString(question)
	return b.String()
}

// FindSuggestedWord scans the reply for an exact, whole-word match against
// the available word list and returns the first hit in list order.
func FindSuggestedWord(reply string, words []models.Word) *models.Word {
	tokens := strings.Fields(service.NormalizeRecognizedText(reply))
	seen := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		seen[tok] = true
	}

	for i := range words {
		if seen[service.NormalizeRecognizedText(words[i].Text)] {
			return &words[i]
		}
	}
	return nil
}
