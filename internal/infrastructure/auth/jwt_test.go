package auth

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateAndValidateToken(t *testing.T) {
	a := NewAuthenticator("test-secret", "casechat", time.Hour)

	token, err := a.GenerateToken("user-1", "collector")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := a.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("expected user-1, got %s", claims.UserID)
	}
	if claims.Username != "collector" {
		t.Errorf("expected collector, got %s", claims.Username)
	}
	if claims.Issuer != "casechat" {
		t.Errorf("expected issuer casechat, got %s", claims.Issuer)
	}
}

func TestValidateTokenExpired(t *testing.T) {
	a := NewAuthenticator("test-secret", "casechat", -time.Minute)

	token, err := a.GenerateToken("user-1", "collector")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := a.ValidateToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	issuer := NewAuthenticator("secret-one", "casechat", time.Hour)
	verifier := NewAuthenticator("secret-two", "casechat", time.Hour)

	token, err := issuer.GenerateToken("user-1", "collector")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := verifier.ValidateToken(token); err == nil {
		t.Error("expected validation failure for wrong secret")
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	a := NewAuthenticator("test-secret", "casechat", time.Hour)
	if _, err := a.ValidateToken("not.a.token"); err == nil {
		t.Error("expected validation failure for malformed token")
	}
}
