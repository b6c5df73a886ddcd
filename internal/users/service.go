// Package users handles account registration and login. Passwords are
// stored as salted iterated digests; a successful login issues a
// session token that downstream handlers trust until it expires.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cartshare-backend/internal/auth"
	"cartshare-backend/internal/domain"
	"cartshare-backend/internal/store"
)

// ErrPasswordMismatch means the account exists but the password is
// wrong. Kept separate from domain.ErrNotFound because the login
// responses differ.
var ErrPasswordMismatch = errors.New("password does not match")

// RoleUser is the only role issued today.
const RoleUser = "user"

type Service struct {
	store      store.Store
	tokens     *auth.TokenIssuer
	iterations int
	logger     *slog.Logger
}

func NewService(st store.Store, tokens *auth.TokenIssuer, iterations int, logger *slog.Logger) *Service {
	if iterations < 1 {
		iterations = auth.DefaultIterations
	}
	return &Service{store: st, tokens: tokens, iterations: iterations, logger: logger}
}

// Register creates an account. Usernames are unique and case-sensitive;
// a taken name yields domain.ErrConflict.
func (s *Service) Register(ctx context.Context, username, password string) error {
	cred, err := auth.HashPassword(password, s.iterations)
	if err != nil {
		return fmt.Errorf("%w: hashing password: %v", domain.ErrInternal, err)
	}

	user := &domain.User{
		Username:       username,
		HashedPassword: cred.Digest,
		Salt:           cred.Salt,
		Iterations:     cred.Iterations,
		Orders:         []string{},
	}
	if _, err := s.store.CreateUser(ctx, user); err != nil {
		return err
	}
	s.logger.Info("user registered", "username", username)
	return nil
}

// Login verifies the password against the stored credential and issues
// a session token carrying the user's identity.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if !auth.VerifyPassword(password, user.HashedPassword, user.Salt, user.Iterations) {
		return "", ErrPasswordMismatch
	}

	token, err := s.tokens.Issue(auth.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Role:     RoleUser,
	})
	if err != nil {
		return "", fmt.Errorf("%w: signing token: %v", domain.ErrInternal, err)
	}
	return token, nil
}
