package http

import (
	"errors"
	"strings"
	"testing"
	"time"

	"storegate/internal/domain"
)

func TestCookieRoundTrip(t *testing.T) {
	codec, err := NewCookieCodec("secret-key")
	if err != nil {
		t.Fatalf("NewCookieCodec: %v", err)
	}
	now := time.Now().Truncate(time.Second)
	session := domain.Session{
		ID:        "s1",
		Domain:    "shop.example.com",
		Verified:  true,
		IssuedAt:  now,
		ExpiresAt: now.Add(24 * time.Hour),
	}

	token, err := codec.Encode(session)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := codec.Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.ID != session.ID || got.Domain != session.Domain || !got.Verified {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.IssuedAt.Equal(session.IssuedAt) || !got.ExpiresAt.Equal(session.ExpiresAt) {
		t.Fatalf("timestamps drifted: %+v", got)
	}
}

func TestCookieTamperRejected(t *testing.T) {
	codec, _ := NewCookieCodec("secret-key")
	session := domain.Session{
		ID:        "s1",
		Domain:    "shop.example.com",
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	token, err := codec.Encode(session)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape %q", token)
	}
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	if _, err := codec.Decode(tampered); !errors.Is(err, domain.ErrInvalidCookie) {
		t.Fatalf("tampered cookie must fail with ErrInvalidCookie, got %v", err)
	}
}

func TestCookieWrongSecretRejected(t *testing.T) {
	issuer, _ := NewCookieCodec("secret-a")
	verifier, _ := NewCookieCodec("secret-b")
	token, err := issuer.Encode(domain.Session{
		Domain:    "shop.example.com",
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := verifier.Decode(token); !errors.Is(err, domain.ErrInvalidCookie) {
		t.Fatalf("cross-secret cookie must fail, got %v", err)
	}
}

func TestCookieExpiryEnforcedByServerClock(t *testing.T) {
	codec, _ := NewCookieCodec("secret-key")
	issued := time.Now()
	token, err := codec.Encode(domain.Session{
		Domain:    "shop.example.com",
		IssuedAt:  issued,
		ExpiresAt: issued.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	codec.now = func() time.Time { return issued.Add(2 * time.Hour) }
	if _, err := codec.Decode(token); !errors.Is(err, domain.ErrInvalidCookie) {
		t.Fatalf("expired cookie must fail, got %v", err)
	}
}

func TestCookieGarbageRejected(t *testing.T) {
	codec, _ := NewCookieCodec("secret-key")
	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := codec.Decode(token); !errors.Is(err, domain.ErrInvalidCookie) {
			t.Fatalf("Decode(%q) must fail with ErrInvalidCookie, got %v", token, err)
		}
	}
}

func TestCookieCodecRequiresSecret(t *testing.T) {
	if _, err := NewCookieCodec(""); err == nil {
		t.Fatal("empty secret must be rejected")
	}
}
