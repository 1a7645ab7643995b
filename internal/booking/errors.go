package booking

import (
	"fmt"

	"studyroom/internal/schedule"
)

// ValidationError is a user-correctable input problem. It renders as a
// message page, never as a failure.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// ConflictError is the expected business outcome when a candidate slot
// overlaps an existing booking. It carries the blocking interval for
// display.
type ConflictError struct {
	Conflict *schedule.Conflict
	// CrossPool is set when the block comes from the caller's own
	// booking in the other pool.
	CrossPool bool
}

func (e *ConflictError) Error() string {
	if e.CrossPool {
		return fmt.Sprintf("you already hold %s in the other pool", e.Conflict.Interval())
	}
	return fmt.Sprintf("slot already reserved: %s", e.Conflict.Interval())
}

// ExtensionBlockedError means the requested extension interval collides
// with a following booking on the same resource.
type ExtensionBlockedError struct {
	Conflict *schedule.Conflict
}

func (e *ExtensionBlockedError) Error() string {
	return fmt.Sprintf("extension blocked by %s", e.Conflict.Interval())
}

// NotFoundError means the extend or cancel target does not exist (or is
// no longer in its actionable window). Handlers redirect back to the
// entry point with a transient notice.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string { return e.What + " not found" }
