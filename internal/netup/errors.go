package netup

import "errors"

var (
	ErrMissingSSID      = errors.New("netup: SSID is required")
	ErrIncompleteStatic = errors.New("netup: static addressing needs address, mask and gateway")
	ErrInvalidMask      = errors.New("netup: invalid subnet mask")
	ErrCommandFailed    = errors.New("netup: network manager command failed")
)
