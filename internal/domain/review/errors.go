package review

import "github.com/eventhub/eventhub-api/internal/pkg/apperror"

var (
	ErrTransactionNotFound = apperror.NotFound("Transaction not found")
	ErrNotPaid             = apperror.Validation("Only paid transactions can be reviewed")
	ErrEventNotEnded       = apperror.Validation("Event has not ended yet")
	ErrAlreadyReviewed     = apperror.Conflict("Transaction has already been reviewed")
)
