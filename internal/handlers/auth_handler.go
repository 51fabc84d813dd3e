package handlers

import (
	"log"

	"storefront/internal/apperrors"
	"storefront/internal/services"
	"storefront/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	validator   *validation.Validator
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, v *validation.Validator) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validator:   v,
	}
}

// RegisterRoutes registers the authentication routes.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/sign-up", h.HandleSignUp)
	authRoutes.Post("/login", h.HandleLogin)
}

// HandleSignUp handles new user registration.
func (h *AuthHandler) HandleSignUp(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing sign-up request body: %v", err)
		return apperrors.ErrValidation.WithMessage("Invalid request body").Wrap(err)
	}
	result, err := h.authService.Register(c.UserContext(), req)
	if err != nil {
		return err
	}
	return ok(c, result)
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req services.LoginInput
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing login request body: %v", err)
		return apperrors.ErrValidation.WithMessage("Invalid request body").Wrap(err)
	}
	req.Normalize()
	if err := h.validator.Struct(req); err != nil {
		return err
	}

	result, err := h.authService.Login(c.UserContext(), req)
	if err != nil {
		log.Printf("Login failed for %s: %v", req.Email, err)
		return err
	}
	return ok(c, result)
}
