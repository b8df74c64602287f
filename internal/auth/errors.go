package auth

import "errors"

var (
	// ErrMissingCredential is returned when a session is requested but no
	// device credential is stored.
	ErrMissingCredential = errors.New("missing device credentials")
	// ErrMalformedInput is returned when validator input carries no session
	// parameter.
	ErrMalformedInput = errors.New("validator input missing session parameter")
	// ErrRegistrationDeclined is returned when the platform answers a device
	// registration with a clean false instead of an exception.
	ErrRegistrationDeclined = errors.New("platform declined device registration")
)
