package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/thereayou/securechat/internal/common"
	"github.com/thereayou/securechat/internal/models"
)

// AuthService covers signup, password login and token checks.
type AuthService interface {
	Signup(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (Session, error)
	Identity(token string) (string, error)
}

// Session is an issued bearer token and the instant it stops verifying.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

type CredentialStore interface {
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
}

type TokenManager interface {
	Generate(identity string) (string, error)
	Verify(token string) (string, error)
	Expiry(token string) (time.Time, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

type Authenticator struct {
	store  CredentialStore
	tokens TokenManager
	hasher PasswordHasher

	// dummyHash is compared against on unknown usernames so a miss costs
	// the same as a wrong password.
	dummyHash string
}

func NewAuthenticator(store CredentialStore, tokens TokenManager, hasher PasswordHasher) (*Authenticator, error) {
	dummy, err := hasher.Hash("dummy-password-for-timing")
	if err != nil {
		return nil, fmt.Errorf("cannot hash password: %w", err)
	}
	return &Authenticator{store: store, tokens: tokens, hasher: hasher, dummyHash: dummy}, nil
}

// Signup stores a new user with a hashed password.
func (a *Authenticator) Signup(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, common.ErrInvalidInput
	}

	existing, err := a.store.FindUserByUsername(ctx, username)
	switch {
	case err == nil && existing != nil:
		return nil, common.ErrDuplicateUsername
	case err != nil && !errors.Is(err, common.ErrNotFound):
		return nil, err
	}

	hash, err := a.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("cannot hash password: %w", err)
	}

	user := &models.User{Username: username, PasswordHash: hash}
	if err := a.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks the password and issues a session token.
func (a *Authenticator) Login(ctx context.Context, username, password string) (Session, error) {
	user, err := a.store.FindUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			a.hasher.Verify(password, a.dummyHash)
			return Session{}, common.ErrInvalidCredentials
		}
		return Session{}, err
	}

	if !a.hasher.Verify(password, user.PasswordHash) {
		return Session{}, common.ErrInvalidCredentials
	}

	token, err := a.tokens.Generate(user.Username)
	if err != nil {
		return Session{}, fmt.Errorf("could not generate token: %w", err)
	}
	expiresAt, err := a.tokens.Expiry(token)
	if err != nil {
		return Session{}, fmt.Errorf("could not read token expiry: %w", err)
	}
	return Session{Token: token, ExpiresAt: expiresAt}, nil
}

// Identity validates token and returns its subject. Errors are
// auth.ErrTokenExpired or auth.ErrTokenInvalid.
func (a *Authenticator) Identity(token string) (string, error) {
	return a.tokens.Verify(token)
}
