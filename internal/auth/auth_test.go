package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/chitfund/internal/models"
)

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func (m *memoryUsers) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.users == nil {
		m.users = make(map[string]*models.User)
	}
	m.users[user.Address] = user
	return nil
}

func (m *memoryUsers) GetUserByAddress(_ context.Context, address string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[address], nil
}

func TestPasswordAuthenticator(t *testing.T) {
	ctx := context.Background()
	a := NewPasswordAuthenticator(&memoryUsers{}).WithCost(bcrypt.MinCost)

	user, err := a.Register(ctx, "  0xABC  ", "Alice", "correct horse")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Address != "0xabc" {
		t.Errorf("address: expected normalized '0xabc', got '%s'", user.Address)
	}
	if user.PasswordHash == "correct horse" {
		t.Error("password stored in plain text")
	}

	if _, err := a.Register(ctx, "0xabc", "Mallory", "another password"); !errors.Is(err, ErrAddressExists) {
		t.Errorf("expected ErrAddressExists, got %v", err)
	}
	if _, err := a.Register(ctx, "0xdef", "Bob", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("expected ErrWeakPassword, got %v", err)
	}
	if _, err := a.Register(ctx, "  ", "Nobody", "long enough"); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("expected ErrInvalidAddress, got %v", err)
	}

	got, err := a.Authenticate(ctx, "0xAbc", "correct horse")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("authenticated wrong user: %s", got.ID)
	}

	if _, err := a.Authenticate(ctx, "0xabc", "wrong password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := a.Authenticate(ctx, "0x999", "correct horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown address, got %v", err)
	}
}

func TestJWTManager(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	user := models.NewUser("0xabc", "Alice", "hash")

	token, err := m.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.MemberID != "0xabc" || claims.UserID != user.ID {
		t.Errorf("unexpected claims: %+v", claims)
	}

	other := NewJWTManager("other-secret", time.Hour)
	if _, err := other.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for wrong secret, got %v", err)
	}

	expired := NewJWTManager("test-secret", -time.Minute)
	old, err := expired.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := m.Validate(old); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}
