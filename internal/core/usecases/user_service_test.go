package usecases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/samirrijal/geolocator/internal/core/domain"
	"github.com/samirrijal/geolocator/internal/core/usecases"
)

// --- Mock TokenIssuer ---

type mockIssuer struct {
	issueFn func(userID, username string) (string, time.Time, error)
}

func (m *mockIssuer) Issue(userID, username string) (string, time.Time, error) {
	if m.issueFn != nil {
		return m.issueFn(userID, username)
	}
	return "token-" + userID, time.Now().Add(time.Hour), nil
}

func newUserService(repo *mockUserRepo) *usecases.UserService {
	return usecases.NewUserService(repo, &mockIssuer{}).WithHashCost(bcrypt.MinCost)
}

// --- Tests ---

func TestUserService_Register(t *testing.T) {
	repo := newMockUserRepo()
	svc := newUserService(repo)

	u, err := svc.Register(context.Background(), "  explorer_1 ", "correct horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID == "" {
		t.Error("expected generated ID")
	}
	if u.Username != "explorer_1" {
		t.Errorf("expected trimmed username, got %q", u.Username)
	}
	if u.PasswordHash == "correct horse" || u.PasswordHash == "" {
		t.Error("password must be stored hashed")
	}
	if u.GamesPlayed != 0 || u.HighScore != 0 {
		t.Errorf("new user should start at zero, got %+v", u)
	}
	if _, ok := repo.users[u.ID]; !ok {
		t.Error("user not persisted")
	}
}

func TestUserService_Register_Validation(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"short username", "ab", "password1", domain.ErrInvalidUsername},
		{"long username", "abcdefghijklmnopqrstuvwxy", "password1", domain.ErrInvalidUsername},
		{"bad chars", "bad-name", "password1", domain.ErrInvalidUsername},
		{"short password", "player", "short", domain.ErrInvalidPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockUserRepo()
			_, err := newUserService(repo).Register(context.Background(), tt.username, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if len(repo.users) != 0 {
				t.Error("invalid registration must not persist")
			}
		})
	}
}

func TestUserService_Register_Taken(t *testing.T) {
	svc := newUserService(newMockUserRepo())
	if _, err := svc.Register(context.Background(), "player", "password1"); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Register(context.Background(), "player", "password2")
	if !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestUserService_Login(t *testing.T) {
	svc := newUserService(newMockUserRepo())
	u, err := svc.Register(context.Background(), "player", "password1")
	if err != nil {
		t.Fatal(err)
	}

	sess, err := svc.Login(context.Background(), "player", "password1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.Token != "token-"+u.ID {
		t.Errorf("unexpected token %q", sess.Token)
	}
	if sess.User.ID != u.ID {
		t.Errorf("expected user %s, got %s", u.ID, sess.User.ID)
	}
}

func TestUserService_Login_Invalid(t *testing.T) {
	svc := newUserService(newMockUserRepo())
	if _, err := svc.Register(context.Background(), "player", "password1"); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Login(context.Background(), "player", "wrongpass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "nobody", "password1"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("unknown user: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestUserService_Login_IssuerError(t *testing.T) {
	repo := newMockUserRepo()
	svc := usecases.NewUserService(repo, &mockIssuer{
		issueFn: func(userID, username string) (string, time.Time, error) {
			return "", time.Time{}, errors.New("no secret")
		},
	}).WithHashCost(bcrypt.MinCost)
	if _, err := svc.Register(context.Background(), "player", "password1"); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Login(context.Background(), "player", "password1"); err == nil {
		t.Fatal("expected error")
	}
}

func TestUserService_UpdateProfile(t *testing.T) {
	repo := newMockUserRepo()
	svc := newUserService(repo)
	u, err := svc.Register(context.Background(), "player", "password1")
	if err != nil {
		t.Fatal(err)
	}

	name, pw := "renamed", "newpassword"
	updated, err := svc.UpdateProfile(context.Background(), u.ID, usecases.ProfileUpdate{Username: &name, Password: &pw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Username != "renamed" {
		t.Errorf("expected renamed, got %s", updated.Username)
	}
	if _, err := svc.Login(context.Background(), "renamed", "newpassword"); err != nil {
		t.Errorf("login with new credentials failed: %v", err)
	}
	if _, err := svc.Login(context.Background(), "renamed", "password1"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("old password should no longer work, got %v", err)
	}
}

func TestUserService_UpdateProfile_Errors(t *testing.T) {
	repo := newMockUserRepo()
	svc := newUserService(repo)
	a, _ := svc.Register(context.Background(), "alice", "password1")
	if _, err := svc.Register(context.Background(), "bob_b", "password1"); err != nil {
		t.Fatal(err)
	}

	taken := "bob_b"
	if _, err := svc.UpdateProfile(context.Background(), a.ID, usecases.ProfileUpdate{Username: &taken}); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}
	short := "x"
	if _, err := svc.UpdateProfile(context.Background(), a.ID, usecases.ProfileUpdate{Password: &short}); !errors.Is(err, domain.ErrInvalidPassword) {
		t.Errorf("expected ErrInvalidPassword, got %v", err)
	}
	if _, err := svc.UpdateProfile(context.Background(), "missing", usecases.ProfileUpdate{}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
