package errors

import "errors"

var (
	ErrNotFound = errors.New("interview not found")

	ErrInvalidID = errors.New("invalid interview ID format")

	// ErrSlotTaken is returned when the slot_hold unique index rejects a write.
	ErrSlotTaken = errors.New("slot already holds an interview")

	// ErrStatusChanged is returned when a conditional write finds the
	// interview in a different status than the caller read.
	ErrStatusChanged = errors.New("interview status changed concurrently")

	ErrInvalidTimeRange = errors.New("end time must be after start time")
)
