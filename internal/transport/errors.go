package transport

import "errors"

// Common transport errors.
var (
	// ErrNoAPIKey indicates the cloud path was used without an API key
	// configured.
	ErrNoAPIKey = errors.New("transport: cloud API key not configured")

	// ErrNoAddress indicates a LAN command was attempted for a device
	// with no known address.
	ErrNoAddress = errors.New("transport: device has no LAN address")

	// ErrBadStatus indicates the cloud API answered with an
	// unexpected HTTP or payload status code.
	ErrBadStatus = errors.New("transport: unexpected response status")

	// ErrTimeout indicates a LAN exchange produced no reply within
	// the deadline.
	ErrTimeout = errors.New("transport: device did not reply")
)
