// Package mapper converts between wire documents from the store and domain
// models. Functions here are pure: no I/O, and the only failure path is an
// unrecognized enumeration value, which fails loudly.
package mapper

import (
	"fmt"
	"time"

	"palabritas/internal/models"
	"palabritas/internal/store"
)

// AssignmentFromDoc maps a wire assignment document into the domain model.
// Legacy status strings (PENDIENTE, activa, COMPLETADO) are normalized;
// anything else is an error.
func AssignmentFromDoc(doc store.Document) (models.Assignment, error) {
	status, err := models.ParseAssignmentStatus(getString(doc.Data, "estado"))
	if err != nil {
		return models.Assignment{}, fmt.Errorf("assignment %s: %w", doc.ID, err)
	}

	return models.Assignment{
		ID:          doc.ID,
		TeacherID:   getString(doc.Data, "idDocente"),
		StudentID:   getString(doc.Data, "idEstudiante"),
		WordID:      getString(doc.Data, "idPalabra"),
		WordText:    getString(doc.Data, "textoPalabra"),
		ImageURL:    getString(doc.Data, "imagenURL"),
		AudioURL:    getString(doc.Data, "audioURL"),
		Difficulty:  getInt(doc.Data, "dificultad"),
		StudentName: getString(doc.Data, "nombreEstudiante"),
		Status:      status,
		AssignedAt:  getTime(doc.Data, "fechaAsignacion"),
		DueAt:       getTimePtr(doc.Data, "fechaLimite"),
		CompletedAt: getTimePtr(doc.Data, "fechaCompletado"),
	}, nil
}

// AssignmentToDoc maps the writable assignment fields to wire format.
// The assignment timestamp is server-assigned and added by the repository.
func AssignmentToDoc(a models.Assignment) map[string]any {
	data := map[string]any{
		"idDocente":        a.TeacherID,
		"idEstudiante":     a.StudentID,
		"idPalabra":        a.WordID,
		"textoPalabra":     a.WordText,
		"imagenURL":        a.ImageURL,
		"audioURL":         a.AudioURL,
		"dificultad":       a.Difficulty,
		"nombreEstudiante": a.StudentName,
		"estado":           string(a.Status),
	}
	if a.DueAt != nil {
		data["fechaLimite"] = a.DueAt.UTC()
	}
	return data
}

// StudentFromDoc maps a wire student document into the domain model.
func StudentFromDoc(doc store.Document) models.Student {
	return models.Student{
		ID:            doc.ID,
		Name:          getString(doc.Data, "nombre"),
		Surname:       getString(doc.Data, "apellido"),
		Age:           getInt(doc.Data, "edad"),
		Grade:         getString(doc.Data, "grado"),
		Section:       getString(doc.Data, "seccion"),
		TutorID:       getString(doc.Data, "idTutor"),
		TeacherID:     getString(doc.Data, "idDocente"),
		InstitutionID: getString(doc.Data, "idInstitucion"),
		PhotoURL:      getString(doc.Data, "fotoPerfil"),
		AccessCode:    getString(doc.Data, "codigoAcceso"),
		RegisteredAt:  getTime(doc.Data, "fechaRegistro"),
	}
}

// StudentToDoc maps the writable student fields to wire format.
func StudentToDoc(s models.Student) map[string]any {
	return map[string]any{
		"nombre":        s.Name,
		"apellido":      s.Surname,
		"edad":          s.Age,
		"grado":         s.Grade,
		"seccion":       s.Section,
		"idTutor":       s.TutorID,
		"idDocente":     s.TeacherID,
		"idInstitucion": s.InstitutionID,
		"fotoPerfil":    s.PhotoURL,
		"codigoAcceso":  s.AccessCode,
	}
}

// DictionaryEntryFromDoc maps a personal dictionary document, keyed by word
// ID, into the domain model.
func DictionaryEntryFromDoc(doc store.Document) models.DictionaryEntry {
	return models.DictionaryEntry{
		WordID:         doc.ID,
		WordText:       getString(doc.Data, "textoPalabra"),
		ImageURL:       getString(doc.Data, "imagenURL"),
		AudioURL:       getString(doc.Data, "audioURL"),
		AddedAt:        getTime(doc.Data, "fechaAgregado"),
		LastReviewedAt: getTime(doc.Data, "fechaUltimoRepaso"),
		PlayCount:      getInt(doc.Data, "vecesJugado"),
		SuccessCount:   getInt(doc.Data, "vecesAcertado"),
	}
}

// WordFromDoc maps a word catalog document into the domain model.
func WordFromDoc(doc store.Document) models.Word {
	return models.Word{
		ID:         doc.ID,
		Text:       getString(doc.Data, "texto"),
		ImageURL:   getString(doc.Data, "imagenURL"),
		AudioURL:   getString(doc.Data, "audioURL"),
		Difficulty: getInt(doc.Data, "dificultad"),
		CreatedAt:  getTime(doc.Data, "fechaCreacion"),
	}
}

// WordToDoc maps the writable word fields to wire format.
func WordToDoc(w models.Word) map[string]any {
	return map[string]any{
		"texto":      w.Text,
		"imagenURL":  w.ImageURL,
		"audioURL":   w.AudioURL,
		"dificultad": w.Difficulty,
	}
}

// UserFromDoc maps a user document into the domain model. An unrecognized
// role is an error, never a default.
func UserFromDoc(doc store.Document) (models.User, error) {
	role, err := models.ParseRole(getString(doc.Data, "rol"))
	if err != nil {
		return models.User{}, fmt.Errorf("user %s: %w", doc.ID, err)
	}

	return models.User{
		ID:            doc.ID,
		Email:         getString(doc.Data, "email"),
		PasswordHash:  getString(doc.Data, "passwordHash"),
		Name:          getString(doc.Data, "nombre"),
		Role:          role,
		InstitutionID: getString(doc.Data, "idInstitucion"),
		RegisteredAt:  getTime(doc.Data, "fechaRegistro"),
	}, nil
}

// UserToDoc maps the writable user fields to wire format.
func UserToDoc(u models.User) map[string]any {
	return map[string]any{
		"email":         u.Email,
		"passwordHash":  u.PasswordHash,
		"nombre":        u.Name,
		"rol":           string(u.Role),
		"idInstitucion": u.InstitutionID,
	}
}

// SessionFromDoc maps a session document into the domain model.
func SessionFromDoc(doc store.Document) models.Session {
	return models.Session{
		ID:        doc.ID,
		UserID:    getString(doc.Data, "idUsuario"),
		StudentID: getString(doc.Data, "idEstudiante"),
		ExpiresAt: getTime(doc.Data, "expira"),
		CreatedAt: getTime(doc.Data, "creada"),
	}
}

// SessionToDoc maps the writable session fields to wire format.
func SessionToDoc(s models.Session) map[string]any {
	return map[string]any{
		"idUsuario":    s.UserID,
		"idEstudiante": s.StudentID,
		"expira":       s.ExpiresAt.UTC(),
		"creada":       s.CreatedAt.UTC(),
	}
}

func getString(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

func getInt(data map[string]any, key string) int {
	switch n := data[key].(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}

func getTime(data map[string]any, key string) time.Time {
	t, _ := data[key].(time.Time)
	return t
}

func getTimePtr(data map[string]any, key string) *time.Time {
	t, ok := data[key].(time.Time)
	if !ok {
		return nil
	}
	return &t
}
