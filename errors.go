package retrorender

import "errors"

// Sentinel errors returned by the render manager.
var (
	// ErrInvalidConfiguration is returned by Configure for an unknown pixel
	// format or zero nominal dimensions.
	ErrInvalidConfiguration = errors.New("retrorender: invalid configuration")

	// ErrNoBackends is returned when no rendering system could be created.
	ErrNoBackends = errors.New("retrorender: no rendering systems available")
)
