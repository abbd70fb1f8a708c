// Package auth manages the user directory: signup with a fixed starting
// balance and credential checks on login. Passwords are stored bcrypt-hashed.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"QuantumTrader/internal/model"
	"QuantumTrader/internal/store"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidInput       = errors.New("username and password required")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Service authenticates against the user directory held by the store.
type Service struct {
	store          store.Store
	initialBalance decimal.Decimal
}

func NewService(st store.Store, initialBalance decimal.Decimal) *Service {
	return &Service{store: st, initialBalance: initialBalance}
}

// Signup registers a new user with the configured starting balance.
func (s *Service) Signup(username, password string) error {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return ErrInvalidInput
	}

	users, err := s.store.LoadUsers()
	if err != nil {
		return fmt.Errorf("signup: %w", err)
	}
	if _, ok := users[username]; ok {
		return fmt.Errorf("signup %s: %w", username, ErrUserExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	users[username] = model.UserRecord{PasswordHash: string(hash), Balance: s.initialBalance}
	if err := s.store.SaveUsers(users); err != nil {
		return fmt.Errorf("signup %s: %w", username, err)
	}
	return nil
}

// Login verifies credentials and returns the stored account. Unknown users
// and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(username, password string) (model.Account, error) {
	users, err := s.store.LoadUsers()
	if err != nil {
		return model.Account{}, fmt.Errorf("login: %w", err)
	}
	rec, ok := users[username]
	if !ok {
		return model.Account{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		return model.Account{}, ErrInvalidCredentials
	}
	return model.Account{Username: username, Balance: rec.Balance}, nil
}
