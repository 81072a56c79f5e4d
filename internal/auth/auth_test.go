package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestManager(t *testing.T, opts ...Option) *TokenManager {
	t.Helper()
	m, err := NewTokenManager("test-secret", DefaultTokenTTL, opts...)
	if err != nil {
		t.Fatalf("NewTokenManager returned error: %v", err)
	}
	return m
}

func TestTokenManager_RoundTrip(t *testing.T) {
	m := newTestManager(t)

	token, expiresAt, err := m.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if remaining := time.Until(expiresAt); remaining < DefaultTokenTTL-time.Minute || remaining > DefaultTokenTTL {
		t.Fatalf("expected expiry about 7 days out, got %s", remaining)
	}

	userID, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("expected user-1, got %q", userID)
	}
}

func TestTokenManager_RejectsTamperedSignature(t *testing.T) {
	m := newTestManager(t)
	token, _, err := m.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	if sig[5] == 'A' {
		sig[5] = 'B'
	} else {
		sig[5] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	if _, err := m.Verify(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenManager_RejectsExpiredToken(t *testing.T) {
	past := time.Now().Add(-8 * 24 * time.Hour)
	issuer := newTestManager(t, WithClock(func() time.Time { return past }))
	token, _, err := issuer.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if _, err := newTestManager(t).Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestTokenManager_RejectsOtherSecretAndAlgorithms(t *testing.T) {
	m := newTestManager(t)

	other, err := NewTokenManager("another-secret", DefaultTokenTTL)
	if err != nil {
		t.Fatalf("NewTokenManager returned error: %v", err)
	}
	foreign, _, err := other.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to build unsigned token: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "other secret", token: foreign},
		{name: "alg none", token: unsigned},
		{name: "malformed", token: "not-a-token"},
		{name: "empty", token: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Verify(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestNewTokenManager_RequiresSecret(t *testing.T) {
	if _, err := NewTokenManager("  ", DefaultTokenTTL); !errors.Is(err, ErrEmptySecret) {
		t.Fatalf("expected ErrEmptySecret, got %v", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("pw")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "pw" {
		t.Fatal("expected password to be hashed")
	}
	if err := CheckPassword(hash, "pw"); err != nil {
		t.Fatalf("expected matching password, got %v", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestHashPassword_RejectsOverlongPassword(t *testing.T) {
	if _, err := HashPassword(strings.Repeat("x", MaxPasswordBytes+1)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
	if _, err := HashPassword(strings.Repeat("x", MaxPasswordBytes)); err != nil {
		t.Fatalf("expected %d bytes to hash, got %v", MaxPasswordBytes, err)
	}
}
