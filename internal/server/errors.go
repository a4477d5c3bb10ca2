package server

import "errors"

var (
	// ErrListenerClosed is returned by Serve when the listener closes
	// without the context being cancelled.
	ErrListenerClosed = errors.New("server: listener closed")

	// ErrInvalidListen is returned for an unusable listen configuration.
	ErrInvalidListen = errors.New("server: invalid listen configuration")
)
