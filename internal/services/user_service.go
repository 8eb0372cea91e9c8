package services

import (
	"context"
	"fmt"

	"financas/internal/core"
	"financas/internal/metrics"
	"financas/internal/storage"
)

// UserService registers users and checks credentials.
//
// Passwords are stored and compared as plain text for parity with the
// system this replaces. Integrators must front this with their own
// hashing before exposing it anywhere that matters.
type UserService struct {
	store storage.Store
}

func NewUserService(store storage.Store) *UserService {
	return &UserService{store: store}
}

// Authenticate returns the user for an exact email + password match.
// Both failure modes are AuthError with distinct reason texts.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*core.User, error) {
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		metrics.AuthFailures.Inc()
		return nil, &core.AuthError{Reason: "Usuário não encontrado."}
	}
	if user.Password != password {
		metrics.AuthFailures.Inc()
		return nil, &core.AuthError{Reason: "Senha inválida."}
	}
	return user, nil
}

// Register persists a new user after checking that the email is free.
// The existence check is a case-sensitive exact match.
func (s *UserService) Register(ctx context.Context, user *core.User) (*core.User, error) {
	exists, err := s.store.UserEmailExists(ctx, user.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, &core.ValidationError{Reason: "Já existe um usuário cadastrado com este e-mail"}
	}

	stored, err := s.store.CreateUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return stored, nil
}

// FindByID returns nil without error when no user has the given id.
func (s *UserService) FindByID(ctx context.Context, id int64) (*core.User, error) {
	user, err := s.store.FindUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}
