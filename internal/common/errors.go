// Package common defines shared constants and sentinel errors used across
// the storefront layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrInternal        = errors.New("internal error")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrVersionConflict = errors.New("version conflict")

	// Validation errors.
	ErrValidation = errors.New("validation error")
	ErrEmptyCart  = errors.New("cart is empty")

	// Checkout / payment errors.
	ErrPaymentRejected    = errors.New("payment rejected")
	ErrChargeUnconfirmed  = errors.New("charge unconfirmed")
	ErrCheckoutInProgress = errors.New("checkout already in progress")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrResetTokenExpired   = errors.New("reset token expired")
)
