package tutor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"palabritas/internal/models"
)

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient("", "key", "model"); err == nil {
		t.Error("NewClient() accepted empty base URL")
	}
	if _, err := NewClient("  ", "key", "model"); err == nil {
		t.Error("NewClient() accepted blank base URL")
	}
}

func TestClientComplete(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "¡Hola! Practica la palabra gato."}},
			},
		})
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "test-key", "")
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}

	text, err := client.Complete(context.Background(), "sistema", "pregunta")
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if !strings.Contains(text, "gato") {
		t.Errorf("Complete() = %q", text)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotReq.Model != "gpt-4o-mini" {
		t.Errorf("model = %q, want default", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Role != "user" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
}

func TestClientCompleteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limited"},
		})
	}))
	defer srv.Close()

	client, _ := NewClient(srv.URL, "", "")
	_, err := client.Complete(context.Background(), "s", "u")
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("Complete() error = %v, want the API message", err)
	}
}

func TestClientCompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	client, _ := NewClient(srv.URL, "", "")
	if _, err := client.Complete(context.Background(), "s", "u"); err == nil {
		t.Error("Complete() accepted response without choices")
	}
}

func TestBuildPrompt(t *testing.T) {
	student := models.Student{Name: "Ana", Surname: "García", Age: 8, Grade: "3"}
	words := []models.Word{{Text: "Gato"}, {Text: "Perro"}}

	prompt := BuildPrompt(student, words, "¿qué palabra practico?")

	for _, want := range []string{"Ana García", "8 años", "grado 3", "Gato, Perro", "¿qué palabra practico?"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildPromptWithoutWords(t *testing.T) {
	prompt := BuildPrompt(models.Student{Name: "Ana", Age: 8}, nil, "hola")
	if strings.Contains(prompt, "Palabras disponibles") {
		t.Errorf("prompt lists words when none exist:\n%s", prompt)
	}
}

func TestFindSuggestedWord(t *testing.T) {
	words := []models.Word{{ID: "w1", Text: "Gato"}, {ID: "w2", Text: "León"}}

	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{name: "exact word", reply: "Practica la palabra gato hoy.", want: "w1"},
		{name: "accent-folded match", reply: "Te sugiero leon.", want: "w2"},
		{name: "first in list order wins", reply: "leon y gato", want: "w1"},
		{name: "substring is not a match", reply: "gatos por todas partes", want: ""},
		{name: "no match", reply: "sigue leyendo", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindSuggestedWord(tt.reply, words)
			if tt.want == "" {
				if got != nil {
					t.Errorf("FindSuggestedWord() = %+v, want nil", got)
				}
				return
			}
			if got == nil || got.ID != tt.want {
				t.Errorf("FindSuggestedWord() = %+v, want %s", got, tt.want)
			}
		})
	}
}

func TestServiceDisabled(t *testing.T) {
	svc := NewService(nil)
	if svc.Enabled() {
		t.Error("Enabled() with nil client")
	}
	if _, err := svc.Ask(context.Background(), models.Student{}, nil, "hola"); err == nil {
		t.Error("Ask() on disabled service should fail")
	}
}
