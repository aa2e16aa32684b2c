package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"palabritas/internal/models"
	"palabritas/internal/repository"
	"palabritas/internal/security"
	"palabritas/internal/validation"
)

var (
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionExpired     = errors.New("session expired")
)

// AuthService handles authentication for adult accounts and student
// access-code sign-in.
type AuthService struct {
	userRepo        *repository.UserRepository
	studentRepo     *repository.StudentRepository
	tokens          *security.TokenIssuer
	sessionDuration time.Duration
}

// NewAuthService creates a new auth service.
func NewAuthService(userRepo *repository.UserRepository, studentRepo *repository.StudentRepository, tokens *security.TokenIssuer, sessionDuration time.Duration) *AuthService {
	return &AuthService{
		userRepo:        userRepo,
		studentRepo:     studentRepo,
		tokens:          tokens,
		sessionDuration: sessionDuration,
	}
}

// Register creates a new tutor or teacher account.
func (s *AuthService) Register(ctx context.Context, email, password, name string, role models.Role) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         role,
	}
	id, err := s.userRepo.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}

	user.ID = id
	return &user, nil
}

// Login checks credentials and opens a session. It returns the session and
// a bearer token for the mobile client.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, *models.Session, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || !security.CheckPassword(user.PasswordHash, password) {
		return nil, nil, "", ErrInvalidCredentials
	}

	session, err := s.openSession(ctx, user.ID, "")
	if err != nil {
		return nil, nil, "", err
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, nil, "", err
	}
	return user, session, token, nil
}

// LoginWithOAuth upserts an account for an OAuth identity and opens a
// session. New accounts default to the teacher role; the email is already
// verified by the provider.
func (s *AuthService) LoginWithOAuth(ctx context.Context, email, name string) (*models.User, *models.Session, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, nil, "", err
	}

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		created := models.User{Email: email, Name: name, Role: models.RoleTeacher}
		id, err := s.userRepo.CreateUser(ctx, created)
		if err != nil {
			return nil, nil, "", err
		}
		created.ID = id
		user = &created
	}

	session, err := s.openSession(ctx, user.ID, "")
	if err != nil {
		return nil, nil, "", err
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, nil, "", err
	}
	return user, session, token, nil
}

// StudentLogin opens a session from a student access code.
func (s *AuthService) StudentLogin(ctx context.Context, accessCode string) (*models.Student, *models.Session, error) {
	accessCode = strings.ToLower(strings.TrimSpace(accessCode))
	if accessCode == "" {
		return nil, nil, ErrInvalidCredentials
	}

	student, err := s.studentRepo.GetStudentByAccessCode(ctx, accessCode)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, err
	}

	session, err := s.openSession(ctx, "", student.ID)
	if err != nil {
		return nil, nil, err
	}
	return student, session, nil
}

// ValidateSession resolves a session ID to its user, enforcing expiry.
func (s *AuthService) ValidateSession(ctx context.Context, sessionID string) (*models.User, error) {
	session, err := s.userRepo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsExpired() {
		_ = s.userRepo.DeleteSession(ctx, sessionID)
		return nil, ErrSessionExpired
	}
	return s.userRepo.GetUser(ctx, session.UserID)
}

// ValidateStudentSession resolves a student session ID to its student.
func (s *AuthService) ValidateStudentSession(ctx context.Context, sessionID string) (*models.Student, error) {
	session, err := s.userRepo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsExpired() {
		_ = s.userRepo.DeleteSession(ctx, sessionID)
		return nil, ErrSessionExpired
	}
	if session.StudentID == "" {
		return nil, fmt.Errorf("session: %w", repository.ErrNotFound)
	}
	return s.studentRepo.GetStudent(ctx, session.StudentID)
}

// VerifyToken validates a mobile bearer token.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	return s.userRepo.GetUser(ctx, claims.Subject)
}

// Logout deletes a session.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.userRepo.DeleteSession(ctx, sessionID)
}

func (s *AuthService) openSession(ctx context.Context, userID, studentID string) (*models.Session, error) {
	session := models.Session{
		ID:        security.GenerateSessionID(),
		UserID:    userID,
		StudentID: studentID,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(s.sessionDuration),
	}
	if err := s.userRepo.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return &session, nil
}
