package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

// memStore is a minimal in-memory UserStore for tests.
type memStore struct {
	users map[string]*User
}

func newMemStore() *memStore {
	return &memStore{users: make(map[string]*User)}
}

func (s *memStore) CreateUser(_ context.Context, u *User) error {
	cp := *u
	s.users[u.Email] = &cp
	return nil
}

func (s *memStore) UserByEmail(_ context.Context, email string) (*User, error) {
	u, ok := s.users[email]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func newTestService() *Service {
	// MinCost keeps bcrypt fast in tests.
	return NewService(newMemStore(), "test-secret", time.Hour, 4)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "Alice@Example.com", "password123", "")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("Email = %q, want lowercased", user.Email)
	}
	if user.Role != DefaultRole {
		t.Errorf("Role = %q, want %q", user.Role, DefaultRole)
	}
	if user.PasswordHash == "password123" || user.PasswordHash == "" {
		t.Error("password must be stored hashed")
	}

	token, logged, err := svc.Login(ctx, "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if token == "" {
		t.Error("Login() returned empty token")
	}
	if logged.ID != user.ID {
		t.Errorf("logged in user ID = %q, want %q", logged.ID, user.ID)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@b.com", "password123", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Register(ctx, "a@b.com", "other-password", ""); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Register() error = %v, want ErrEmailTaken", err)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@b.com", "password123", ""); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nobody@b.com", "password123"},
		{"wrong password", "a@b.com", "wrong"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Login(ctx, tt.email, tt.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestVerifyToken(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "a@b.com", "password123", "USER")
	if err != nil {
		t.Fatal(err)
	}
	token, _, err := svc.Login(ctx, "a@b.com", "password123")
	if err != nil {
		t.Fatal(err)
	}

	claims, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken() error = %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("UserID = %q, want %q", claims.UserID, user.ID)
	}
	if claims.Role != "USER" {
		t.Errorf("Role = %q, want USER", claims.Role)
	}
}

func TestVerifyToken_Invalid(t *testing.T) {
	svc := newTestService()

	if _, err := svc.VerifyToken("not-a-token"); err == nil {
		t.Error("VerifyToken() should reject garbage")
	}

	// Token signed with a different secret must fail.
	other := NewService(newMemStore(), "other-secret", time.Hour, 4)
	user := &User{ID: "u1", Email: "a@b.com", Role: "ADMIN"}
	token, err := other.issueToken(user)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.VerifyToken(token); err == nil {
		t.Error("VerifyToken() should reject a token signed with another secret")
	}
}

func TestVerifyToken_Expired(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, "test-secret", -time.Minute, 4)

	user := &User{ID: "u1", Email: "a@b.com", Role: "ADMIN"}
	token, err := svc.issueToken(user)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.VerifyToken(token); err == nil {
		t.Error("VerifyToken() should reject an expired token")
	}
}
