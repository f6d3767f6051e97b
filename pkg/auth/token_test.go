package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/tradehubhq/tradehub-go/pkg/config"
)

func TestMintAndParseSessionToken(t *testing.T) {
	cfg := config.SessionConfig{
		JWTSecret:         "secret",
		JWTIssuer:         "tradehub",
		ExpirationMinutes: 30,
	}
	now := time.Now().UTC()

	payload := SessionTokenPayload{
		UserID:      "uid-4821",
		DisplayName: "Asha Rahman",
		Email:       "asha@example.com",
		PhotoURL:    "https://img.example.com/asha.png",
	}

	token, err := MintSessionToken(cfg, now, payload)
	if err != nil {
		t.Fatalf("mint session token: %v", err)
	}

	claims, err := ParseSessionToken(cfg, token)
	if err != nil {
		t.Fatalf("parse session token: %v", err)
	}

	if claims.UserID != payload.UserID {
		t.Fatalf("expected user_id %s, got %s", payload.UserID, claims.UserID)
	}
	if claims.DisplayName != payload.DisplayName {
		t.Fatalf("unexpected display name %q", claims.DisplayName)
	}
	if claims.Email != payload.Email {
		t.Fatalf("unexpected email %q", claims.Email)
	}
	if claims.PhotoURL != payload.PhotoURL {
		t.Fatalf("unexpected photo url %q", claims.PhotoURL)
	}

	// RegisteredClaims is embedded, so access fields directly.
	if claims.Issuer != cfg.JWTIssuer {
		t.Fatalf("expected issuer %q, got %q", cfg.JWTIssuer, claims.Issuer)
	}
	if claims.Subject != payload.UserID {
		t.Fatalf("expected subject %q, got %q", payload.UserID, claims.Subject)
	}
	if claims.ID == "" {
		t.Fatalf("expected generated jti")
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(now) {
		t.Fatalf("expiry should be in the future")
	}
}

func TestMintSessionTokenValidation(t *testing.T) {
	base := config.SessionConfig{
		JWTSecret:         "secret",
		JWTIssuer:         "tradehub",
		ExpirationMinutes: 30,
	}
	now := time.Now().UTC()
	payload := SessionTokenPayload{UserID: "uid-1"}

	missingSecret := base
	missingSecret.JWTSecret = ""
	if _, err := MintSessionToken(missingSecret, now, payload); err == nil {
		t.Fatal("expected error for missing secret")
	}

	missingIssuer := base
	missingIssuer.JWTIssuer = ""
	if _, err := MintSessionToken(missingIssuer, now, payload); err == nil {
		t.Fatal("expected error for missing issuer")
	}

	zeroTTL := base
	zeroTTL.ExpirationMinutes = 0
	if _, err := MintSessionToken(zeroTTL, now, payload); err == nil {
		t.Fatal("expected error for zero TTL")
	}

	if _, err := MintSessionToken(base, now, SessionTokenPayload{UserID: "  "}); err == nil {
		t.Fatal("expected error for blank user id")
	}
}

func TestParseSessionTokenRejectsTampering(t *testing.T) {
	cfg := config.SessionConfig{
		JWTSecret:         "secret",
		JWTIssuer:         "tradehub",
		ExpirationMinutes: 30,
	}
	token, err := MintSessionToken(cfg, time.Now().UTC(), SessionTokenPayload{UserID: "uid-1"})
	if err != nil {
		t.Fatalf("mint session token: %v", err)
	}

	wrongSecret := cfg
	wrongSecret.JWTSecret = "other"
	if _, err := ParseSessionToken(wrongSecret, token); err == nil {
		t.Fatal("expected signature validation to fail")
	}

	wrongIssuer := cfg
	wrongIssuer.JWTIssuer = "someone-else"
	if _, err := ParseSessionToken(wrongIssuer, token); err == nil {
		t.Fatal("expected issuer validation to fail")
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape")
	}
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	if _, err := ParseSessionToken(cfg, tampered); err == nil {
		t.Fatal("expected tampered signature to fail")
	}
}
