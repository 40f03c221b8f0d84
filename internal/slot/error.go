package slot

import "errors"

var (
	ErrSlotNotFound    = errors.New("slot not found")
	ErrFailedListSlots = errors.New("failed to list driver slots")
	ErrDateInPast      = errors.New("date is in the past")
)
