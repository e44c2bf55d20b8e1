package auth

import (
	"testing"
	"time"

	"github.com/VehiCheck/VehiCheck/internal/common/config"
)

func TestGenerateAndParseAccessToken(t *testing.T) {
	cfg := config.AuthConfig{
		Enabled:   true,
		JWTSecret: "test-secret",
		Issuer:    "vehicheck",
		Audience:  "vehicheck",
	}

	token, exp, err := GenerateAccessToken(cfg, "u-1", []string{"TECNICO"}, time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token")
	}
	if exp.Before(time.Now()) {
		t.Fatalf("expected exp in future")
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.Subject != "u-1" {
		t.Fatalf("subject mismatch: %s", claims.Subject)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != "TECNICO" {
		t.Fatalf("roles mismatch: %#v", claims.Roles)
	}
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	cfg := config.AuthConfig{JWTSecret: "secret-a", Issuer: "vehicheck"}

	token, _, err := GenerateAccessToken(cfg, "u-1", nil, time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	other := config.AuthConfig{JWTSecret: "secret-b", Issuer: "vehicheck"}
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Fatalf("expected parse with wrong secret to fail")
	}
}

func TestParseAccessTokenRejectsWrongIssuer(t *testing.T) {
	cfg := config.AuthConfig{JWTSecret: "secret", Issuer: "someone-else"}
	token, _, err := GenerateAccessToken(cfg, "u-1", nil, time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	strict := config.AuthConfig{JWTSecret: "secret", Issuer: "vehicheck"}
	if _, err := ParseAccessToken(strict, token); err == nil {
		t.Fatalf("expected issuer mismatch to fail")
	}
}
