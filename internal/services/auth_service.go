package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"storefront/internal/apperrors"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// RegisterInput is the sign-up payload.
type RegisterInput struct {
	FirstName string `json:"firstName" validate:"required,min=2,max=100,personname"`
	LastName  string `json:"lastName" validate:"required,min=2,max=100,personname"`
	Email     string `json:"email" validate:"required,email,max=100"`
	Password  string `json:"password" validate:"required,min=8,max=72,strongpassword"`
}

// Normalize trims the input and lower-cases the email.
func (in *RegisterInput) Normalize() {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = NormalizeEmail(in.Email)
	in.Password = strings.TrimSpace(in.Password)
}

// LoginInput is the login payload.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Normalize trims the input and lower-cases the email.
func (in *LoginInput) Normalize() {
	in.Email = NormalizeEmail(in.Email)
	in.Password = strings.TrimSpace(in.Password)
}

// AuthResult is returned by sign-up and login.
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AuthService handles business logic for registration and login.
type AuthService struct {
	userRepo  repositories.UserRepository
	tokens    *TokenService
	validator *validation.Validator
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, tokens *TokenService, v *validation.Validator) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		tokens:    tokens,
		validator: v,
	}
}

// Register validates the input, creates a user with a bcrypt hashed password
// and returns it with a fresh token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Normalize()
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err == nil && existing != nil {
		return nil, apperrors.ErrUserExists
	}
	if err != nil && !errors.Is(err, repositories.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:     in.Email,
		Password:  string(hashedPassword),
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.ErrUserExists
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	log.Printf("Registered user %s", user.ID)
	return &AuthResult{User: user, Token: token}, nil
}

// Login authenticates a user by email and password. Unknown emails and wrong
// passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Normalize()

	user, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}
