package services

import (
	"context"
	"fmt"
	"time"

	"task-portal/auth"
	"task-portal/domain/chat"
	"task-portal/errors"
	"task-portal/repositories"
)

type IAuthService interface {
	Register(ctx context.Context, name, email, password string) (Token, chat.User, error)
	Login(ctx context.Context, email, password string) (Token, chat.User, error)
}

type Token string

type AuthService struct {
	users    repositories.IUserRepository
	secret   []byte
	tokenTTL time.Duration
}

func NewAuthService(users repositories.IUserRepository, secret []byte, tokenTTL time.Duration) IAuthService {
	return &AuthService{users: users, secret: secret, tokenTTL: tokenTTL}
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (Token, chat.User, error) {
	valReq := auth.RegisterRequest{Name: name, Email: email, Password: password}

	// Validate business rules before any expensive cryptographic operation.
	if err := auth.ValidateRegister(valReq); err != nil {
		return "", chat.User{}, fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}

	// Hashing happens in the service layer, the repository never sees a
	// plain password.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", chat.User{}, fmt.Errorf("hashing failed: %w", err)
	}

	user, err := s.users.Create(ctx, name, email, hashedPassword)
	if err != nil {
		return "", chat.User{}, err // propagates ErrUserAlreadyExists
	}

	token, err := auth.GenerateToken(s.secret, user, s.tokenTTL)
	if err != nil {
		return "", chat.User{}, errors.ErrTokenGeneration
	}
	return Token(token), user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (Token, chat.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		// Generic error to prevent user enumeration.
		return "", chat.User{}, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", chat.User{}, errors.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(s.secret, user, s.tokenTTL)
	if err != nil {
		return "", chat.User{}, errors.ErrTokenGeneration
	}
	return Token(token), user, nil
}
