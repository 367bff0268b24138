package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestGenerateAndValidate(t *testing.T) {
	Configure("test-secret", time.Hour)

	id := uuid.New()
	token, err := GenerateToken(id, "owner@example.com", "Owner", []string{"invoice:create"}, "v1")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != id || claims.Email != "owner@example.com" || claims.TokenVersion != "v1" {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if len(claims.Privileges) != 1 || claims.Privileges[0] != "invoice:create" {
		t.Errorf("Privileges = %v", claims.Privileges)
	}
}

func TestValidateTokenRejectsTampered(t *testing.T) {
	Configure("test-secret", time.Hour)

	token, err := GenerateToken(uuid.New(), "a@b.c", "A", nil, "v1")
	if err != nil {
		t.Fatal(err)
	}

	Configure("another-secret", time.Hour)
	defer Configure("test-secret", time.Hour)

	if _, err := ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateToken() error = %v, want ErrInvalidToken", err)
	}
}

func TestValidateTokenMissing(t *testing.T) {
	if _, err := ValidateToken(""); !errors.Is(err, ErrMissingToken) {
		t.Errorf("ValidateToken(\"\") error = %v, want ErrMissingToken", err)
	}
}
