package event

import "github.com/eventhub/eventhub-api/internal/pkg/apperror"

var (
	ErrEventNotFound    = apperror.NotFound("Event Not Found")
	ErrNotEventOwner    = apperror.Forbidden("You can only manage your own events")
	ErrNegativePrice    = apperror.Validation("Price must not be negative")
	ErrInvalidDateRange = apperror.Validation("End date must not be before start date")
	ErrSeatsBelowSold   = apperror.Validation("Total seats cannot be lower than tickets already sold")
	ErrEventEnded       = apperror.Validation("Event has already ended")
	ErrNotEnoughSeats   = apperror.Validation("Not enough seats available")
)
