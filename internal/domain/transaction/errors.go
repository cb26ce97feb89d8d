package transaction

import (
	"errors"

	"github.com/eventhub/eventhub-api/internal/pkg/apperror"
)

var (
	ErrTransactionNotFound = apperror.NotFound("Transaction not found")
	ErrNotPending          = apperror.Conflict("Transaction cannot be updated in its current state")
	ErrCouponInvalid       = apperror.Validation("Invalid coupon code")
	ErrCouponUsed          = apperror.Validation("Coupon has already been used")
	ErrCouponExpired       = apperror.Validation("Coupon has expired")
	ErrPaymentProofMissing = apperror.Validation("image is required")
)

// errSkip aborts an expiry whose transaction no longer qualifies.
var errSkip = errors.New("transaction no longer expirable")
