package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"palabritas/internal/models"
	"palabritas/internal/repository"
	"palabritas/internal/security"
	"palabritas/internal/store/memstore"
)

func newAuthService(m *memstore.Memstore, sessionDuration time.Duration) *AuthService {
	return NewAuthService(
		repository.NewUserRepository(m),
		repository.NewStudentRepository(m),
		security.NewTokenIssuer("test-secret", time.Hour),
		sessionDuration,
	)
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	m := memstore.New()
	svc := newAuthService(m, time.Hour)

	user, err := svc.Register(ctx, "Tutor@Ejemplo.com", "secreta123", "María", models.RoleTutor)
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if user.Email != "tutor@ejemplo.com" {
		t.Errorf("Email = %q, want lowercased", user.Email)
	}
	if user.PasswordHash == "secreta123" {
		t.Error("password stored in plaintext")
	}

	got, session, token, err := svc.Login(ctx, "tutor@ejemplo.com", "secreta123")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("Login() user = %s, want %s", got.ID, user.ID)
	}
	if session.ID == "" || token == "" {
		t.Error("Login() did not issue session and token")
	}

	verified, err := svc.VerifyToken(ctx, token)
	if err != nil {
		t.Fatalf("VerifyToken() error: %v", err)
	}
	if verified.ID != user.ID || verified.Role != models.RoleTutor {
		t.Errorf("VerifyToken() = %+v", verified)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(memstore.New(), time.Hour)

	if _, err := svc.Register(ctx, "tutor@ejemplo.com", "secreta123", "María", models.RoleTutor); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	_, err := svc.Register(ctx, "TUTOR@ejemplo.com", "otraclave123", "Marta", models.RoleTutor)
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Register() error = %v, want ErrEmailTaken", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(memstore.New(), time.Hour)

	if _, err := svc.Register(ctx, "tutor@ejemplo.com", "secreta123", "María", models.RoleTutor); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "wrong password", email: "tutor@ejemplo.com", password: "incorrecta"},
		{name: "unknown email", email: "nadie@ejemplo.com", password: "secreta123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := svc.Login(ctx, tt.email, tt.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestLoginWithOAuthUpserts(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(memstore.New(), time.Hour)

	user, _, _, err := svc.LoginWithOAuth(ctx, "docente@escuela.edu", "Prof. Ríos")
	if err != nil {
		t.Fatalf("LoginWithOAuth() error: %v", err)
	}
	if user.Role != models.RoleTeacher {
		t.Errorf("new OAuth account role = %v, want teacher default", user.Role)
	}

	again, _, _, err := svc.LoginWithOAuth(ctx, "docente@escuela.edu", "Prof. Ríos")
	if err != nil {
		t.Fatalf("second LoginWithOAuth() error: %v", err)
	}
	if again.ID != user.ID {
		t.Errorf("second sign-in created a new account: %s != %s", again.ID, user.ID)
	}
}

func TestStudentLogin(t *testing.T) {
	ctx := context.Background()
	m := memstore.New()
	svc := newAuthService(m, time.Hour)

	studentRepo := repository.NewStudentRepository(m)
	id, err := studentRepo.CreateStudent(ctx, models.Student{
		Name:       "Ana",
		TutorID:    "tutor1",
		AccessCode: "rojo-gato-07",
	})
	if err != nil {
		t.Fatalf("CreateStudent() error: %v", err)
	}

	student, session, err := svc.StudentLogin(ctx, "  ROJO-gato-07 ")
	if err != nil {
		t.Fatalf("StudentLogin() error: %v", err)
	}
	if student.ID != id {
		t.Errorf("StudentLogin() student = %s, want %s", student.ID, id)
	}
	if session.StudentID != id || session.UserID != "" {
		t.Errorf("session = %+v, want student session", session)
	}

	resolved, err := svc.ValidateStudentSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("ValidateStudentSession() error: %v", err)
	}
	if resolved.ID != id {
		t.Errorf("ValidateStudentSession() = %s, want %s", resolved.ID, id)
	}

	if _, _, err := svc.StudentLogin(ctx, "lila-oso-99"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("StudentLogin() with unknown code error = %v, want ErrInvalidCredentials", err)
	}
}

func TestValidateSessionExpiry(t *testing.T) {
	ctx := context.Background()
	m := memstore.New()
	svc := newAuthService(m, -time.Minute) // sessions are born expired

	if _, err := svc.Register(ctx, "tutor@ejemplo.com", "secreta123", "María", models.RoleTutor); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	_, session, _, err := svc.Login(ctx, "tutor@ejemplo.com", "secreta123")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	if _, err := svc.ValidateSession(ctx, session.ID); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("ValidateSession() error = %v, want ErrSessionExpired", err)
	}

	// the expired session was deleted, a second check sees it as gone
	if _, err := svc.ValidateSession(ctx, session.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("ValidateSession() after cleanup error = %v, want ErrNotFound", err)
	}
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	m := memstore.New()
	svc := newAuthService(m, time.Hour)

	if _, err := svc.Register(ctx, "tutor@ejemplo.com", "secreta123", "María", models.RoleTutor); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	_, session, _, err := svc.Login(ctx, "tutor@ejemplo.com", "secreta123")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	if err := svc.Logout(ctx, session.ID); err != nil {
		t.Fatalf("Logout() error: %v", err)
	}
	if _, err := svc.ValidateSession(ctx, session.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("ValidateSession() after logout error = %v, want ErrNotFound", err)
	}
}
