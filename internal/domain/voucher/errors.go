package voucher

import "github.com/eventhub/eventhub-api/internal/pkg/apperror"

var (
	ErrVoucherNotFound = apperror.Validation("Invalid voucher code")
	ErrVoucherInactive = apperror.Validation("Voucher is not active")
	ErrVoucherUsedUp   = apperror.Validation("Voucher quota has been used up")
	ErrCodeTaken       = apperror.Conflict("Voucher code already exists for this event")
	ErrEndsAfterEvent  = apperror.Validation("Voucher must end before the event ends")
)
