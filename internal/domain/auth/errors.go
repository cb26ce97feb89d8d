package auth

import (
	"errors"

	"github.com/eventhub/eventhub-api/internal/pkg/apperror"
)

var (
	ErrEmailAlreadyExists = apperror.Conflict("Email already exists")
	ErrEmailDeleted       = apperror.Validation("This email was previously deleted. Please contact support.")
	ErrInvalidReferral    = apperror.Validation("Invalid referral code")
	ErrInvalidCredentials = apperror.Validation("Invalid Credentials")
	ErrNotGoogleAccount   = apperror.Validation("Account already registered without google")
	ErrInvalidGoogleToken = apperror.Unauthorized("Invalid Google access token")
	ErrInvalidResetToken  = apperror.Unauthorized("Invalid or expired reset token")

	// ErrResetEmailFailed is reported as a plain 500.
	ErrResetEmailFailed = errors.New("send password reset email")
)
