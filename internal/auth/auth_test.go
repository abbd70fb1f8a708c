package auth

import (
	"errors"
	"testing"

	"QuantumTrader/internal/store"

	"github.com/shopspring/decimal"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(store.NewMemoryStore(), decimal.NewFromInt(10000))
}

func TestSignupAndLogin(t *testing.T) {
	svc := newTestService(t)

	if err := svc.Signup("alice", "s3cret"); err != nil {
		t.Fatal(err)
	}

	acct, err := svc.Login("alice", "s3cret")
	if err != nil {
		t.Fatal(err)
	}
	if acct.Username != "alice" {
		t.Errorf("expected username alice, got %s", acct.Username)
	}
	if !acct.Balance.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("expected initial balance 10000, got %s", acct.Balance)
	}
}

func TestSignupValidation(t *testing.T) {
	svc := newTestService(t)

	if err := svc.Signup("", "pw"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for blank username, got %v", err)
	}
	if err := svc.Signup("alice", "  "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for blank password, got %v", err)
	}

	if err := svc.Signup("alice", "pw"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Signup("alice", "other"); !errors.Is(err, ErrUserExists) {
		t.Errorf("expected ErrUserExists, got %v", err)
	}
}

func TestLoginFailures(t *testing.T) {
	svc := newTestService(t)
	if err := svc.Signup("alice", "s3cret"); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Login("alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.Login("nobody", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestPasswordsAreNotStoredInPlaintext(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewService(st, decimal.NewFromInt(10000))
	if err := svc.Signup("alice", "s3cret"); err != nil {
		t.Fatal(err)
	}

	users, err := st.LoadUsers()
	if err != nil {
		t.Fatal(err)
	}
	if users["alice"].PasswordHash == "s3cret" {
		t.Error("password stored as plaintext")
	}
}
