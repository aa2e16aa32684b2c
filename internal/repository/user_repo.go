package repository

import (
	"context"
	"errors"
	"fmt"

	"palabritas/internal/mapper"
	"palabritas/internal/models"
	"palabritas/internal/store"
)

// UserRepository handles store operations for user accounts and sessions.
type UserRepository struct {
	store store.Store
}

// NewUserRepository creates a new user repository.
func NewUserRepository(st store.Store) *UserRepository {
	return &UserRepository{store: st}
}

// CreateUser persists a new user account and returns the store-generated ID.
func (r *UserRepository) CreateUser(ctx context.Context, u models.User) (string, error) {
	if u.Email == "" {
		return "", fmt.Errorf("%w: email is required", ErrValidation)
	}

	data := mapper.UserToDoc(u)
	data["fechaRegistro"] = store.ServerTimestamp

	id, err := r.store.Collection(UsersCollection).Add(ctx, data)
	if err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

// GetUser loads one user by ID.
func (r *UserRepository) GetUser(ctx context.Context, userID string) (*models.User, error) {
	data, err := r.store.Collection(UsersCollection).Doc(userID).Get(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u, err := mapper.UserFromDoc(store.Document{ID: userID, Data: data})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail finds a user by email. Returns nil without error when no
// account exists, so callers can distinguish "free email" from a failure.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	docs, err := r.store.Collection(UsersCollection).Query().
		Where("email", "==", email).
		Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	u, err := mapper.UserFromDoc(docs[0])
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateSession persists a session document keyed by the session ID.
func (r *UserRepository) CreateSession(ctx context.Context, s models.Session) error {
	if s.ID == "" {
		return fmt.Errorf("%w: session ID is required", ErrValidation)
	}

	err := r.store.Collection(SessionsCollection).Doc(s.ID).Merge(ctx, mapper.SessionToDoc(s))
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetSession loads one session by ID.
func (r *UserRepository) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	data, err := r.store.Collection(SessionsCollection).Doc(sessionID).Get(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("session: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	s := mapper.SessionFromDoc(store.Document{ID: sessionID, Data: data})
	return &s, nil
}

// DeleteSession removes a session document.
func (r *UserRepository) DeleteSession(ctx context.Context, sessionID string) error {
	if err := r.store.Collection(SessionsCollection).Doc(sessionID).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
