// Package service contains application services for authentication and tasks.
package service

import (
	"context"
	"strings"

	pkgcrypto "github.com/dkorzhov/tasksync/internal/crypto"
	"github.com/dkorzhov/tasksync/internal/errs"
	"github.com/dkorzhov/tasksync/internal/limiter"
	"github.com/dkorzhov/tasksync/internal/model"
	"github.com/dkorzhov/tasksync/internal/repository"
	"github.com/dkorzhov/tasksync/internal/token"
)

const minPasswordLen = 6

// AuthService defines registration and authentication operations.
type AuthService interface {
	// Register creates a new user and returns a session token for it.
	Register(ctx context.Context, email, fullName, password string) (model.Tokens, *model.User, error)
	// LoginWithIP applies rate limiting and authenticates the user.
	LoginWithIP(ctx context.Context, email, password, ip string) (model.Tokens, *model.User, error)
	// GetUser loads a user by id.
	GetUser(ctx context.Context, userID int64) (*model.User, error)
}

type AuthServiceImpl struct {
	users  repository.UserRepository
	tokens *token.Manager
	lim    limiter.Limiter
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, tokens *token.Manager, lim limiter.Limiter) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, tokens: tokens, lim: lim}
}

// NormalizeEmail lowercases and trims an email for case-insensitive matching.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new user record with a per-user salt and issues a token.
func (s *AuthServiceImpl) Register(ctx context.Context, email, fullName, password string) (model.Tokens, *model.User, error) {
	email = NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return model.Tokens{}, nil, errs.Validation("email", "must be a valid email address")
	}
	if len(password) < minPasswordLen {
		return model.Tokens{}, nil, errs.Validation("password", "must be at least 6 characters")
	}
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return model.Tokens{}, nil, errs.Validation("full_name", "must not be empty")
	}

	salt, err := pkgcrypto.RandBytes(16)
	if err != nil {
		return model.Tokens{}, nil, err
	}
	u := &model.User{
		Email:    email,
		FullName: fullName,
		PwdHash:  pkgcrypto.HashPassword([]byte(password), salt),
		SaltAuth: salt,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return model.Tokens{}, nil, err
	}

	tok, err := s.issue(u.ID)
	if err != nil {
		return model.Tokens{}, nil, err
	}
	return tok, u, nil
}

// LoginWithIP authenticates with rate limiting by (email, ip).
func (s *AuthServiceImpl) LoginWithIP(ctx context.Context, email, password, ip string) (model.Tokens, *model.User, error) {
	email = NormalizeEmail(email)
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, email, ipHash)
	if err != nil {
		return model.Tokens{}, nil, err
	}
	if !allowed {
		return model.Tokens{}, nil, errs.ErrRateLimited
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil || !pkgcrypto.VerifyPassword([]byte(password), u.SaltAuth, u.PwdHash) {
		if blocked, _, ferr := s.lim.Failure(ctx, email, ipHash); ferr == nil && blocked {
			return model.Tokens{}, nil, errs.ErrRateLimited
		}
		// missing user and wrong password are indistinguishable to the caller
		return model.Tokens{}, nil, errs.ErrUnauthorized
	}

	// Success: reset counters (best-effort).
	_ = s.lim.Success(ctx, email, ipHash)

	tok, err := s.issue(u.ID)
	if err != nil {
		return model.Tokens{}, nil, err
	}
	return tok, u, nil
}

// GetUser loads a user by id.
func (s *AuthServiceImpl) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *AuthServiceImpl) issue(userID int64) (model.Tokens, error) {
	access, exp, err := s.tokens.Issue(userID)
	if err != nil {
		return model.Tokens{}, err
	}
	return model.Tokens{AccessToken: access, ExpiresAt: exp}, nil
}
