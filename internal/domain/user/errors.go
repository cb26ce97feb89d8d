package user

import "github.com/eventhub/eventhub-api/internal/pkg/apperror"

var (
	ErrUserNotFound    = apperror.NotFound("User not found")
	ErrEmailTaken      = apperror.Conflict("Email already exists")
	ErrWrongPassword   = apperror.Validation("Old password is incorrect")
	ErrGoogleAccount   = apperror.Validation("Accounts registered with Google have no password to change")
	ErrForbiddenDelete = apperror.Forbidden("You dont have access to this resource")
)
