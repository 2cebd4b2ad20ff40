package auth

import (
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)

	token, expiresAt, err := tm.GenerateToken("party-1")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if expiresAt.IsZero() {
		t.Fatal("expected expiry set")
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.PartyID != "party-1" {
		t.Fatalf("expected party-1, got %q", claims.PartyID)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	tm := NewTokenManager("secret-a", 60)
	token, _, err := tm.GenerateToken("party-1")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	other := NewTokenManager("secret-b", 60)
	if _, err := other.ParseToken(token); err == nil {
		t.Fatal("expected signature rejection")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hashed, err := HashPassword("s3cret", 4)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if err := ComparePassword(hashed, "s3cret"); err != nil {
		t.Fatalf("expected match: %v", err)
	}
	if err := ComparePassword(hashed, "wrong"); err == nil {
		t.Fatal("expected mismatch")
	}
}
