package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrInvalidOrigin = fmt.Errorf("invalid API origin")

	// Stream errors
	ErrStreamClosed    = fmt.Errorf("stream closed")
	ErrStreamTransport = fmt.Errorf("stream transport failure")
	ErrServerTimeout   = fmt.Errorf("server closed idle stream")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrListNotFound       = fmt.Errorf("video list not found")

	// Local cache errors
	ErrNoSnapshot = fmt.Errorf("no cached snapshot")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
