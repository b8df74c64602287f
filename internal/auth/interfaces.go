package auth

import "context"

// Platform is the slice of the GET client the auth layer depends on.
// This interface enables mocking the external platform in tests.
type Platform interface {
	// CreatePIN registers a device credential, authorized by a one-shot
	// validator session.
	CreatePIN(ctx context.Context, deviceID, pin, validatorSessionID string) (bool, error)
	// AuthenticatePIN exchanges a device credential for an opaque session id.
	AuthenticatePIN(ctx context.Context, deviceID, pin string) (string, error)
	// RetrieveUserID returns the opaque platform user id for a session.
	RetrieveUserID(ctx context.Context, sessionID string) (string, error)
}

// IdentitySink receives a one-way hash of the platform user id for analytics
// association. Implementations are best-effort: the core succeeds identically
// whether or not a sink is wired in, and never blocks on its errors.
type IdentitySink interface {
	Identify(ctx context.Context, distinctID string) error
}
