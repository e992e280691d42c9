package utils

import (
	"errors"
	"testing"
	"time"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("super-secret")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if !VerifyPassword("super-secret", hash) {
		t.Fatalf("verify failed for correct password")
	}
	if VerifyPassword("wrong", hash) {
		t.Fatalf("expected failure for wrong password")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	token, issued, err := GenerateToken("s3cret", "skymate", time.Hour, 42)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if issued.ID == "" {
		t.Fatalf("token id should be set")
	}

	claims, err := ParseToken("s3cret", token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 42 || claims.ID != issued.ID || claims.Issuer != "skymate" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestParseTokenErrors(t *testing.T) {
	expired, _, err := GenerateToken("s3cret", "skymate", -time.Minute, 1)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseToken("s3cret", expired); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}

	valid, _, _ := GenerateToken("s3cret", "skymate", time.Hour, 1)
	if _, err := ParseToken("other", valid); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
	if _, err := ParseToken("s3cret", "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}
