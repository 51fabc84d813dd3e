// Package apperrors defines the errors that cross the HTTP boundary. Each one
// carries the status code and the stable error code rendered to clients.
package apperrors

import (
	"errors"
	"net/http"
)

// Error is a failure that maps to one JSON error envelope.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]string
	Err     error

	origin *Error
}

// New creates an Error without an underlying cause.
func New(status int, code, message string) *Error {
	e := &Error{Status: status, Code: code, Message: message}
	e.origin = e
	return e
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel e was derived from, so copies
// made by Wrap, WithMessage and WithDetails still match it.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e.origin == nil {
		return false
	}
	return t.origin == e.origin
}

// Wrap returns a copy of e that records cause.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.Err = cause
	return &cp
}

// WithMessage returns a copy of e with a different human message.
func (e *Error) WithMessage(message string) *Error {
	cp := *e
	cp.Message = message
	return &cp
}

// WithDetails returns a copy of e carrying per-field details.
func (e *Error) WithDetails(details map[string]string) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// From extracts an *Error from err's chain.
func From(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

var (
	ErrValidation  = New(http.StatusBadRequest, "VALIDATION_FAILED", "validation failed")
	ErrInvalidData = New(http.StatusBadRequest, "INVALID_DATA", "Invalid data")
	ErrNotFound    = New(http.StatusNotFound, "NOT_FOUND", "resource not found")
	ErrServer      = New(http.StatusInternalServerError, "SERVER_ERROR", "server error")

	ErrUnauthorized       = New(http.StatusUnauthorized, "USER_NOT_AUTHORIZED", "Authentication required")
	ErrTokenExpired       = New(http.StatusUnauthorized, "TOKEN_EXPIRED", "Session expired, please login again")
	ErrInvalidToken       = New(http.StatusUnauthorized, "INVALID_TOKEN", "invalid token")
	ErrMissingSecret      = New(http.StatusInternalServerError, "SERVER_ERROR", "JWT_SECRET is not defined")
	ErrTokenSigning       = New(http.StatusInternalServerError, "TOKEN_GENERATION_FAILED", "failed to generate token")
	ErrInvalidCredentials = New(http.StatusUnauthorized, "INVALID-CREDIENTIALS", "invalid email or password")
	ErrUserExists         = New(http.StatusBadRequest, "USER_ALREADY_EXIST", "user already exist")

	ErrProductNotFound  = New(http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found")
	ErrCartItemNotFound = New(http.StatusNotFound, "CART_ITEM_NOT_FOUND", "Cart item not found or cannot be modified")
	ErrCartEmpty        = New(http.StatusBadRequest, "CART_EMPTY", "No items in cart")
	ErrCartChanged      = New(http.StatusConflict, "CART_CHANGED", "Cart changed during checkout, please retry")

	ErrOrderNotFound           = New(http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
	ErrInvalidStatusTransition = New(http.StatusConflict, "INVALID_STATUS_TRANSITION", "order status cannot be changed")
)
