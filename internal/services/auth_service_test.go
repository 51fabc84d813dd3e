package services_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"testing"

	"storefront/internal/apperrors"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test_jwt_secret"

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil && user.ID == "" {
		user.ID = "user-123"
	}
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// TestMain silences service logging for the package.
func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func notFound(email string) error {
	return fmt.Errorf("user with email %s: %w", email, repositories.ErrRecordNotFound)
}

func validRegistration() services.RegisterInput {
	return services.RegisterInput{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "  Jane@Example.com ",
		Password:  "Passw0rd!",
	}
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	tokens := services.NewTokenService(testJWTSecret)
	authService := services.NewAuthService(mockRepo, tokens, validation.New())

	mockRepo.On("GetByEmail", ctx, "jane@example.com").Return(nil, notFound("jane@example.com")).Once()
	mockRepo.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "jane@example.com" &&
			u.Password != "Passw0rd!" &&
			bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("Passw0rd!")) == nil
	})).Return(nil).Once()

	result, err := authService.Register(ctx, validRegistration())
	require.NoError(t, err)
	assert.Equal(t, "user-123", result.User.ID)
	assert.Equal(t, "jane@example.com", result.User.Email)

	identity, err := tokens.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", identity.UserID)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Register_InvalidInput(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, services.NewTokenService(testJWTSecret), validation.New())

	input := validRegistration()
	input.FirstName = "J"
	input.Password = "password"

	_, err := authService.Register(ctx, input)
	appErr, ok := apperrors.From(err)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_FAILED", appErr.Code)
	assert.Contains(t, appErr.Details, "firstName")
	assert.Contains(t, appErr.Details, "password")
	mockRepo.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_Register_EmailTaken(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, services.NewTokenService(testJWTSecret), validation.New())

	mockRepo.On("GetByEmail", ctx, "jane@example.com").Return(&models.User{ID: "1"}, nil).Once()

	_, err := authService.Register(ctx, validRegistration())
	assert.True(t, errors.Is(err, apperrors.ErrUserExists))
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_Register_DuplicateOnInsert(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, services.NewTokenService(testJWTSecret), validation.New())

	mockRepo.On("GetByEmail", ctx, "jane@example.com").Return(nil, notFound("jane@example.com")).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).
		Return(fmt.Errorf("user: %w", repositories.ErrDuplicate)).Once()

	_, err := authService.Register(ctx, validRegistration())
	assert.True(t, errors.Is(err, apperrors.ErrUserExists))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Register_MissingSecret(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, services.NewTokenService(""), validation.New())

	mockRepo.On("GetByEmail", ctx, "jane@example.com").Return(nil, notFound("jane@example.com")).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil).Once()

	_, err := authService.Register(ctx, validRegistration())
	assert.True(t, errors.Is(err, apperrors.ErrMissingSecret))
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	tokens := services.NewTokenService(testJWTSecret)
	authService := services.NewAuthService(mockRepo, tokens, validation.New())

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		ID:       "user-123",
		Email:    "jane@example.com",
		Password: string(hashedPassword),
	}

	// Test successful login, email is normalised before lookup
	mockRepo.On("GetByEmail", ctx, "jane@example.com").Return(user, nil).Once()
	result, err := authService.Login(ctx, services.LoginInput{Email: "JANE@example.com", Password: "Passw0rd!"})
	require.NoError(t, err)
	assert.Equal(t, user, result.User)
	identity, err := tokens.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", identity.UserID)

	// Test invalid credentials (wrong password)
	mockRepo.On("GetByEmail", ctx, "jane@example.com").Return(user, nil).Once()
	_, err = authService.Login(ctx, services.LoginInput{Email: "jane@example.com", Password: "wrongpassword"})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidCredentials))

	// Test invalid credentials (user not found)
	mockRepo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, notFound("ghost@example.com")).Once()
	_, err = authService.Login(ctx, services.LoginInput{Email: "ghost@example.com", Password: "Passw0rd!"})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidCredentials))

	// Store failures are not reported as bad credentials
	mockRepo.On("GetByEmail", ctx, "down@example.com").Return(nil, fmt.Errorf("connection refused")).Once()
	_, err = authService.Login(ctx, services.LoginInput{Email: "down@example.com", Password: "Passw0rd!"})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, apperrors.ErrInvalidCredentials))
	mockRepo.AssertExpectations(t)
}
