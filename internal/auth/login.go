package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roombook/internal/database"
	"roombook/internal/models"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// CredentialStore returns users including their password hash.
type CredentialStore interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Authenticator exchanges a username and password for a bearer token.
type Authenticator struct {
	users  CredentialStore
	tokens *TokenIssuer
}

func NewAuthenticator(users CredentialStore, tokens *TokenIssuer) *Authenticator {
	return &Authenticator{users: users, tokens: tokens}
}

type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Login returns ErrInvalidCredentials whenever the password cannot be
// verified. Store failures are passed through.
func (a *Authenticator) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := a.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.PasswordHash == "" || !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, expires, err := a.tokens.Issue(user.Username, user.Role)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expires, User: user}, nil
}
