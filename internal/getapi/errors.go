package getapi

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport marks a network or HTTP-level failure before any platform
	// payload was decoded.
	ErrTransport = errors.New("platform transport failure")
	// ErrAuthentication marks a registration or authentication rejection
	// reported by the platform.
	ErrAuthentication = errors.New("platform rejected credentials")
	// ErrSessionExpired marks a previously-valid session rejected mid-use.
	// The platform reports expiry only this way; there is no client-visible
	// expiry timestamp.
	ErrSessionExpired = errors.New("platform session expired")
)

// PlatformError carries the platform exception payload of a rejected call,
// classified into one of the sentinel kinds above.
type PlatformError struct {
	Method string
	Detail string
	Kind   error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Method, e.Kind, e.Detail)
}

func (e *PlatformError) Unwrap() error {
	return e.Kind
}
