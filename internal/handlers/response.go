package handlers

import (
	"errors"
	"log"

	"storefront/internal/apperrors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// ErrorBody is the error part of a failure envelope.
type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

func ok(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// ErrorHandler renders every error returned by a handler or middleware as one
// JSON envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	appErr, isAppErr := apperrors.From(err)
	if !isAppErr {
		appErr = fromFiber(err)
	}

	if appErr.Status >= fiber.StatusInternalServerError {
		log.Printf("[%v] %s %s failed: %v", c.Locals(requestid.ConfigDefault.ContextKey), c.Method(), c.Path(), err)
	}

	return c.Status(appErr.Status).JSON(ErrorResponse{
		Success: false,
		Error: ErrorBody{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		},
	})
}

func fromFiber(err error) *apperrors.Error {
	var fe *fiber.Error
	if !errors.As(err, &fe) {
		return apperrors.ErrServer.Wrap(err)
	}
	switch {
	case fe.Code == fiber.StatusNotFound:
		return apperrors.ErrNotFound.WithMessage(fe.Message).Wrap(err)
	case fe.Code < fiber.StatusInternalServerError:
		e := apperrors.ErrValidation.WithMessage(fe.Message).Wrap(err)
		e.Status = fe.Code
		return e
	default:
		return apperrors.ErrServer.Wrap(err)
	}
}
