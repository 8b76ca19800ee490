package service

import "errors"

// Shared service errors. Handlers map these onto HTTP status codes; the
// messages here are safe to show to clients.
var (
	// ErrInvalidCredentials covers both unknown email and wrong password
	// so login responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrRoleNotGranted is returned when a login carries a role hint the
	// account does not actually hold.
	ErrRoleNotGranted = errors.New("role not granted")

	ErrEmailTaken = errors.New("email already registered")

	ErrInvalidTOTPCode  = errors.New("invalid TOTP code")
	ErrTwoFANotEnrolled = errors.New("2FA enrolment not started")
	ErrTwoFAEnabled     = errors.New("2FA already enabled")

	ErrResetTokenInvalid = errors.New("reset token invalid or expired")

	ErrActionTokenInvalid = errors.New("action link invalid or expired")
	ErrActionSettled      = errors.New("role request already settled")

	ErrNotAllowed = errors.New("not allowed")

	ErrValidation = errors.New("validation failed")
)
