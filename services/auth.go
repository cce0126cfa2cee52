package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/adionit7/devstarter/core"
	"github.com/adionit7/devstarter/pkg/crypto"
	"github.com/adionit7/devstarter/pkg/token"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 128
)

// AuthService owns registration and login. Plan mutations never happen
// here; a fresh account always starts on the free plan.
type AuthService struct {
	storage   core.AccountStorage
	passwords crypto.PasswordHandler
	tokens    *token.Issuer

	// dummyHash is verified against whenever the login email resolves
	// to no account, so that "no such record" and "wrong password" take
	// the same amount of work. Skipping the verify call on a missing
	// account reintroduces a timing side channel.
	dummyHash string
}

func NewAuthService(storage core.AccountStorage, passwords crypto.PasswordHandler, tokens *token.Issuer) (*AuthService, error) {
	dummyHash, err := passwords.Hash("devstarter-timing-equalizer")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}

	return &AuthService{
		storage:   storage,
		passwords: passwords,
		tokens:    tokens,
		dummyHash: dummyHash,
	}, nil
}

// Register creates a new account and returns a token so the user is
// logged in right after signup. Email uniqueness is enforced by the
// storage layer; a duplicate surfaces as core.ErrDuplicateEmail.
func (s *AuthService) Register(ctx context.Context, input core.RegisterInput) (*core.AuthResult, error) {
	if err := validateRegisterInput(input); err != nil {
		return nil, err
	}

	credentialHash, err := s.passwords.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &core.Account{
		Email:          input.Email,
		Name:           input.Name,
		CredentialHash: credentialHash,
		Plan:           core.PlanFree,
		IsActive:       true,
	}

	if err := s.storage.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, core.ErrDuplicateEmail) {
			return nil, core.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	raw, err := s.tokens.Issue(account.ID, account.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &core.AuthResult{
		Token:   raw,
		Account: account.Public(),
	}, nil
}

// Login authenticates by email and password. Unknown email and wrong
// password are never distinguished to the caller, and both paths run
// the full password verification.
func (s *AuthService) Login(ctx context.Context, input core.LoginInput) (*core.AuthResult, error) {
	if input.Email == "" {
		return nil, core.ErrEmailRequired
	}
	if input.Password == "" {
		return nil, core.ErrPasswordRequired
	}

	account, err := s.storage.GetAccountByEmail(ctx, input.Email)
	if err != nil && !errors.Is(err, core.ErrAccountNotFound) {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}

	hashToCheck := s.dummyHash
	if account != nil {
		hashToCheck = account.CredentialHash
	}

	// Always run the full verify, even when no account matched.
	valid, _ := s.passwords.Verify(input.Password, hashToCheck)
	if account == nil || !valid {
		return nil, core.ErrInvalidCredentials
	}

	if !account.IsActive {
		return nil, core.ErrAccountDisabled
	}

	raw, err := s.tokens.Issue(account.ID, account.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &core.AuthResult{
		Token:   raw,
		Account: account.Public(),
	}, nil
}

func validateRegisterInput(input core.RegisterInput) error {
	if input.Name == "" {
		return core.ErrNameRequired
	}
	if input.Email == "" {
		return core.ErrEmailRequired
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return core.ErrInvalidEmail
	}
	if input.Password == "" {
		return core.ErrPasswordRequired
	}
	if len(input.Password) < minPasswordLength {
		return core.ErrPasswordTooShort
	}
	if len(input.Password) > maxPasswordLength {
		return core.ErrPasswordTooLong
	}
	return nil
}
