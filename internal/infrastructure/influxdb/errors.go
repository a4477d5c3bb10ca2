package influxdb

import "errors"

var (
	ErrDisabled         = errors.New("influxdb: disabled in configuration")
	ErrConnectionFailed = errors.New("influxdb: connection failed")
	ErrNotConnected     = errors.New("influxdb: client closed")

	// ErrWriteFailed wraps errors passed to the SetOnError callback.
	ErrWriteFailed = errors.New("influxdb: write failed")
)
