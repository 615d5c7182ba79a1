package script

import "errors"

// Errors for script execution.
var (
	// ErrStateClosed is returned when running on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrTimeout is returned when a script exceeds its time budget.
	ErrTimeout = errors.New("script timed out")

	// ErrCallLimit is returned when a script makes too many doc calls.
	ErrCallLimit = errors.New("script call limit exceeded")
)
