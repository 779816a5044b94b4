package auth

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	a, err := NewLocalJWTAuth("test-secret-key", time.Hour)
	if err != nil {
		t.Fatalf("NewLocalJWTAuth failed: %v", err)
	}

	token, err := a.GenerateToken("admin", "admin")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	user, err := a.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("VerifyAccessToken failed: %v", err)
	}
	if user.ID != "admin" || user.Role != "admin" {
		t.Errorf("unexpected user: %+v", user)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	a, _ := NewLocalJWTAuth("secret-one", time.Hour)
	b, _ := NewLocalJWTAuth("secret-two", time.Hour)

	token, err := a.GenerateToken("admin", "admin")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := b.VerifyAccessToken(token); err == nil {
		t.Fatal("expected verification to fail with a different secret")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	a, _ := NewLocalJWTAuth("test-secret-key", time.Hour)
	a.AccessTokenExpiry = -time.Minute

	token, err := a.GenerateToken("admin", "admin")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := a.VerifyAccessToken(token); err == nil {
		t.Fatal("expected verification to fail for an expired token")
	}
}

func TestEmptySecretRejected(t *testing.T) {
	if _, err := NewLocalJWTAuth("", time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid bearer", "Bearer abc123", "abc123", false},
		{"case insensitive scheme", "bearer abc123", "abc123", false},
		{"empty header", "", "", true},
		{"missing token", "Bearer ", "", true},
		{"wrong scheme", "Basic abc123", "", true},
		{"no scheme", "abc123", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractToken(tt.header)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ExtractToken(%q) expected error", tt.header)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractToken(%q) failed: %v", tt.header, err)
			}
			if got != tt.want {
				t.Errorf("ExtractToken(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !strings.HasPrefix(hash, "argon2id$") {
		t.Errorf("unexpected hash format: %q", hash)
	}

	ok, err := VerifyPassword(hash, "correct horse battery staple")
	if err != nil || !ok {
		t.Errorf("expected password to verify, ok=%v err=%v", ok, err)
	}

	ok, err = VerifyPassword(hash, "wrong password")
	if err != nil {
		t.Fatalf("VerifyPassword failed: %v", err)
	}
	if ok {
		t.Error("wrong password must not verify")
	}
}

func TestVerifyPasswordBadFormat(t *testing.T) {
	if _, err := VerifyPassword("not-a-hash", "x"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}
