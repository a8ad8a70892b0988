package utils

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "unit-test-secret")
	os.Exit(m.Run())
}

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken(42, "a@b.com", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Email != "a@b.com" {
		t.Errorf("Email = %q, want a@b.com", claims.Email)
	}
}

func TestParseExpiredToken(t *testing.T) {
	token, err := GenerateToken(1, "a@b.com", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ParseToken(token); err == nil {
		t.Fatal("expected expired token to fail verification")
	}
}

func TestParseMalformedToken(t *testing.T) {
	cases := []string{"", "not-a-token", "a.b", "a.b.c.d"}
	for _, tc := range cases {
		if _, err := ParseToken(tc); err == nil {
			t.Errorf("ParseToken(%q) succeeded, want error", tc)
		}
	}
}

func TestParseTamperedToken(t *testing.T) {
	token, err := GenerateToken(7, "a@b.com", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	// flip a character in the signature segment
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token format: %q", token)
	}
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	if _, err := ParseToken(tampered); err == nil {
		t.Fatal("expected tampered token to fail verification")
	}
}
