package errors

import "errors"

var (
	ErrNotFound = errors.New("slot not found")

	ErrInvalidID = errors.New("invalid slot ID format")

	ErrOverlap = errors.New("slot overlaps an existing slot of the interviewer")

	// ErrSlotBooked is returned by writes that require an unbooked slot.
	ErrSlotBooked = errors.New("slot is linked to an interview")

	// ErrSlotUnavailable is returned when a claim finds the slot taken or changed.
	ErrSlotUnavailable = errors.New("slot is not available")

	// ErrNotHeld is returned when releasing a slot the interview does not hold.
	ErrNotHeld = errors.New("slot is not held by the interview")

	ErrInvalidTimeRange = errors.New("end time must be after start time")
)
