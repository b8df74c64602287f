package store

import "context"

// Slot keys for the three persisted strings. Each slot is present or absent
// independently; there is no schema versioning.
const (
	slotDeviceID = "device_id"
	slotPIN      = "pin"
	slotSession  = "session_id"
)

// Credential is the locally generated device identity registered with the
// platform. Created once by enrollment, destroyed only by explicit logout.
type Credential struct {
	DeviceID string
	PIN      string
}

// Store persists the device credential and session token. No validation
// happens at this layer; partial state (device id without PIN) reads back as
// no credential.
type Store interface {
	SaveCredential(ctx context.Context, deviceID, pin string) error
	LoadCredential(ctx context.Context) (Credential, bool, error)
	ClearCredential(ctx context.Context) error

	SaveSession(ctx context.Context, sessionID string) error
	LoadSession(ctx context.Context) (string, bool, error)
	ClearSession(ctx context.Context) error
}
