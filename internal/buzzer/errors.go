package buzzer

import "errors"

var (
	// ErrInvalidPattern is returned for a pattern that cannot be sounded.
	ErrInvalidPattern = errors.New("buzzer: invalid pattern")

	// ErrPinWrite wraps failures setting the output pin.
	ErrPinWrite = errors.New("buzzer: pin write failed")

	// ErrPinSetup wraps failures exporting or configuring a GPIO pin.
	ErrPinSetup = errors.New("buzzer: pin setup failed")

	// ErrUnknownDriver is returned by Open for an unrecognised driver name.
	ErrUnknownDriver = errors.New("buzzer: unknown driver")
)
