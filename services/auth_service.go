package services

import (
	"fmt"
	"strings"

	"gamehub/auth"
	"gamehub/errors"
	"gamehub/repositories"
)

type IAuthService interface {
	Register(email, password string) (Credentials, error)
	Login(email, password string) (Credentials, error)
}

// Credentials is what a successful register/login hands back to the client:
// the identity and the token it will present on its socket.
type Credentials struct {
	UserID string
	Token  string
}

type AuthService struct {
	userRepository repositories.IUserRepository
	tokens         *auth.TokenManager
}

func NewAuthService(repo repositories.IUserRepository, tokens *auth.TokenManager) IAuthService {
	return &AuthService{userRepository: repo, tokens: tokens}
}

func (s *AuthService) Register(email, password string) (Credentials, error) {
	email = strings.TrimSpace(email)

	// Validate before any expensive hashing happens.
	if err := auth.ValidateRegister(auth.RegisterRequest{Email: email, Password: password}); err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return Credentials{}, fmt.Errorf("hashing failed: %w", err)
	}

	userID, err := s.userRepository.CreateUser(email, hashed)
	if err != nil {
		return Credentials{}, err
	}

	token, err := s.tokens.Generate(userID)
	if err != nil {
		return Credentials{}, errors.ErrTokenGeneration
	}
	return Credentials{UserID: userID, Token: token}, nil
}

func (s *AuthService) Login(email, password string) (Credentials, error) {
	user, err := s.userRepository.GetUserByEmail(strings.TrimSpace(email))
	if err != nil {
		// One generic error for unknown email and wrong password alike,
		// to avoid user enumeration.
		return Credentials{}, errors.ErrInvalidCredentials
	}

	match, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil || !match {
		return Credentials{}, errors.ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return Credentials{}, errors.ErrTokenGeneration
	}
	return Credentials{UserID: user.ID, Token: token}, nil
}
