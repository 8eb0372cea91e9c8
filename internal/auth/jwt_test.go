package auth

import (
	"errors"
	"testing"
	"time"

	"financas/internal/core"
)

func TestGenerateAndValidate(t *testing.T) {
	m := NewJWTManager("um-segredo-bem-longo", time.Hour)
	user := &core.User{ID: 42, Email: "fulano@email.com"}

	token, err := m.Generate(user)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != 42 || claims.Email != "fulano@email.com" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	issuer := NewJWTManager("um-segredo-bem-longo", time.Hour)
	verifier := NewJWTManager("um-segredo-diferente", time.Hour)

	token, err := issuer.Generate(&core.User{ID: 1, Email: "a@b.c"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := verifier.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	m := NewJWTManager("um-segredo-bem-longo", -time.Minute)

	token, err := m.Generate(&core.User{ID: 1, Email: "a@b.c"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := m.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	m := NewJWTManager("um-segredo-bem-longo", time.Hour)
	if _, err := m.Validate("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
