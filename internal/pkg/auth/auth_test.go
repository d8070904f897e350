package auth

import (
	"errors"
	"testing"
	"time"
)

func TestStateSignerRoundTrip(t *testing.T) {
	signer := NewStateSigner("state-secret", time.Minute, "notesphere")

	token, err := signer.Issue("user_123")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	subject, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if subject != "user_123" {
		t.Fatalf("subject = %q, want user_123", subject)
	}
}

func TestStateSignerRejectsExpired(t *testing.T) {
	signer := NewStateSigner("state-secret", time.Minute, "notesphere")
	issued := time.Now().Add(-time.Hour)
	signer.now = func() time.Time { return issued }

	token, err := signer.Issue("user_123")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	signer.now = time.Now
	if _, err := signer.Verify(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestStateSignerRejectsForeignSecret(t *testing.T) {
	token, err := NewStateSigner("one", time.Minute, "notesphere").Issue("user_123")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewStateSigner("two", time.Minute, "notesphere").Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestExtractBearerToken(t *testing.T) {
	if tok, err := ExtractBearerToken("Bearer abc.def.ghi"); err != nil || tok != "abc.def.ghi" {
		t.Fatalf("unexpected result %q %v", tok, err)
	}
	for _, h := range []string{"", "abc", "Basic abc", "Bearer "} {
		if _, err := ExtractBearerToken(h); !errors.Is(err, ErrInvalidFormat) {
			t.Fatalf("header %q: expected ErrInvalidFormat, got %v", h, err)
		}
	}
}

func TestCheckSecret(t *testing.T) {
	hash, err := HashSecret("cron-token")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckSecret(hash, "cron-token") {
		t.Fatalf("matching secret rejected")
	}
	if CheckSecret(hash, "other") || CheckSecret("", "cron-token") || CheckSecret(hash, "") {
		t.Fatalf("mismatched secret accepted")
	}
}
