package wire

import "errors"

// Domain-specific errors for request reading.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrMalformedRequest is returned when the stream ended without a blank-line marker.
	ErrMalformedRequest = errors.New("wire: malformed request")

	// ErrRequestTooLarge is returned when the request exceeds the reader's size limit.
	ErrRequestTooLarge = errors.New("wire: request too large")

	// ErrReadFailed wraps errors from the underlying connection.
	ErrReadFailed = errors.New("wire: read failed")

	// ErrWriteFailed wraps errors writing or closing the connection.
	ErrWriteFailed = errors.New("wire: write failed")
)
