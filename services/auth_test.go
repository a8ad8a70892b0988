package services

import (
	"testing"
	"time"

	"github.com/mohamedzeina/node-social/models"
	"github.com/mohamedzeina/node-social/utils"
)

func TestSignupCreatesUserWithDefaults(t *testing.T) {
	db := testDB(t)
	auth := NewAuthService(db, time.Hour)

	user, err := auth.Signup(SignupInput{Email: "New@Example.com", Name: "Alice", Password: "secret1"})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if user.ID == 0 {
		t.Error("expected a persisted user id")
	}
	if user.Email != "new@example.com" {
		t.Errorf("email = %q, want lowercased", user.Email)
	}
	if user.Status != models.DefaultStatus {
		t.Errorf("status = %q, want %q", user.Status, models.DefaultStatus)
	}
	if user.PasswordHash == "secret1" {
		t.Error("password stored in plaintext")
	}
	if !utils.CheckPassword(user.PasswordHash, "secret1") {
		t.Error("stored hash does not verify the password")
	}
}

func TestSignupCollectsAllViolations(t *testing.T) {
	db := testDB(t)
	auth := NewAuthService(db, time.Hour)

	_, err := auth.Signup(SignupInput{Email: "not-an-email", Name: "", Password: "short"})
	if kind := serviceKind(t, err); kind != KindValidation {
		t.Fatalf("kind = %v, want validation", kind)
	}

	fields := AsError(err).Fields
	if len(fields) != 3 {
		t.Fatalf("got %d violations, want 3: %+v", len(fields), fields)
	}
	seen := map[string]bool{}
	for _, f := range fields {
		seen[f.Field] = true
	}
	for _, want := range []string{"email", "name", "password"} {
		if !seen[want] {
			t.Errorf("missing violation for field %q", want)
		}
	}

	var count int64
	db.Model(&models.User{}).Count(&count)
	if count != 0 {
		t.Errorf("user count = %d after failed signup, want 0", count)
	}
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	db := testDB(t)
	auth := NewAuthService(db, time.Hour)
	mustSignup(t, db, "taken@example.com")

	_, err := auth.Signup(SignupInput{Email: "Taken@Example.com", Name: "Bob", Password: "secret1"})
	if kind := serviceKind(t, err); kind != KindValidation {
		t.Fatalf("kind = %v, want validation", kind)
	}
	fields := AsError(err).Fields
	if len(fields) != 1 || fields[0].Field != "email" {
		t.Errorf("unexpected violations: %+v", fields)
	}
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	db := testDB(t)
	auth := NewAuthService(db, time.Hour)
	user := mustSignup(t, db, "login@example.com")

	token, userID, err := auth.Login("login@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if userID != user.ID {
		t.Errorf("userID = %d, want %d", userID, user.ID)
	}
	claims, err := utils.ParseToken(token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("token user = %d, want %d", claims.UserID, user.ID)
	}
}

func TestLoginFailsTheSameForWrongPasswordAndUnknownEmail(t *testing.T) {
	db := testDB(t)
	auth := NewAuthService(db, time.Hour)
	mustSignup(t, db, "login@example.com")

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "login@example.com", "wrong-pass"},
		{"unknown email", "nobody@example.com", "secret1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := auth.Login(tc.email, tc.password)
			if kind := serviceKind(t, err); kind != KindUnauthenticated {
				t.Fatalf("kind = %v, want unauthenticated", kind)
			}
			if msg := AsError(err).Message; msg != "invalid email or password" {
				t.Errorf("message = %q leaks which part failed", msg)
			}
		})
	}
}

func TestStatusRequiresAuthentication(t *testing.T) {
	db := testDB(t)
	auth := NewAuthService(db, time.Hour)

	if _, err := auth.Status(Anonymous()); serviceKind(t, err) != KindUnauthenticated {
		t.Error("anonymous status read should be unauthenticated")
	}
	if _, err := auth.UpdateStatus(Anonymous(), "hello"); serviceKind(t, err) != KindUnauthenticated {
		t.Error("anonymous status update should be unauthenticated")
	}
}

func TestUpdateStatus(t *testing.T) {
	db := testDB(t)
	auth := NewAuthService(db, time.Hour)
	user := mustSignup(t, db, "status@example.com")

	updated, err := auth.UpdateStatus(Authenticated(user.ID), "Shipping it")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != "Shipping it" {
		t.Errorf("status = %q, want %q", updated.Status, "Shipping it")
	}

	got, err := auth.Status(Authenticated(user.ID))
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if got != "Shipping it" {
		t.Errorf("reloaded status = %q", got)
	}

	if _, err := auth.UpdateStatus(Authenticated(user.ID), "   "); serviceKind(t, err) != KindValidation {
		t.Error("blank status should be a validation failure")
	}
}
