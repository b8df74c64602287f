package auth

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"diningwrapped/internal/store"
)

// EnrollmentState tracks the one-time device enrollment state machine.
type EnrollmentState int

const (
	// StateIdle is the initial state, before any identity exists.
	StateIdle EnrollmentState = iota
	// StateGeneratingIdentity covers device id and PIN generation.
	StateGeneratingIdentity
	// StateRegisteringWithPlatform covers the createPIN call.
	StateRegisteringWithPlatform
	// StateAuthenticating covers the first authenticatePIN call.
	StateAuthenticating
	// StateComplete means a credential and session both exist.
	StateComplete
	// StateFailed is terminal and reachable from any non-idle state.
	StateFailed
)

func (s EnrollmentState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGeneratingIdentity:
		return "generating_identity"
	case StateRegisteringWithPlatform:
		return "registering_with_platform"
	case StateAuthenticating:
		return "authenticating"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Enrollment mints a new device identity and registers it with the platform
// using a one-shot validator session.
//
// The persistence ordering is load-bearing: the credential is written only
// after the platform accepts the registration, so a rejected registration
// leaves no locally-valid-looking identity the server does not recognize. A
// failure after registration leaves the credential persisted and no session;
// the next EnsureSession retries authentication with the now-valid credential.
type Enrollment struct {
	manager  *Manager
	platform Platform
	log      zerolog.Logger
	state    EnrollmentState
}

// NewEnrollment creates an enrollment flow in the idle state.
func NewEnrollment(manager *Manager, platform Platform, log zerolog.Logger) *Enrollment {
	return &Enrollment{
		manager:  manager,
		platform: platform,
		log:      log,
		state:    StateIdle,
	}
}

// State returns the current state of the flow.
func (e *Enrollment) State() EnrollmentState {
	return e.state
}

// Run drives the flow from idle to complete. validatorInput is the pasted
// URL or bare token proving the user completed the third-party login;
// malformed input is rejected before the machine leaves idle.
func (e *Enrollment) Run(ctx context.Context, validatorInput string) (store.Credential, error) {
	if e.state != StateIdle {
		return store.Credential{}, fmt.Errorf("enrollment already ran (state %s)", e.state)
	}

	validatorSessionID, err := ExtractValidatorSession(validatorInput)
	if err != nil {
		return store.Credential{}, err
	}

	e.state = StateGeneratingIdentity
	deviceID := NewDeviceID()
	pin, err := NewPIN()
	if err != nil {
		e.state = StateFailed
		return store.Credential{}, err
	}

	e.state = StateRegisteringWithPlatform
	accepted, err := e.platform.CreatePIN(ctx, deviceID, pin, validatorSessionID)
	if err != nil {
		e.state = StateFailed
		return store.Credential{}, fmt.Errorf("register device: %w", err)
	}
	if !accepted {
		e.state = StateFailed
		return store.Credential{}, ErrRegistrationDeclined
	}

	// Registration is confirmed; the credential may now be persisted.
	if err := e.manager.SetCredentials(ctx, deviceID, pin); err != nil {
		e.state = StateFailed
		return store.Credential{}, fmt.Errorf("persist credential: %w", err)
	}
	e.log.Info().Str("device_id", deviceID).Msg("Device registered")

	e.state = StateAuthenticating
	sessionID, err := e.platform.AuthenticatePIN(ctx, deviceID, pin)
	if err != nil {
		e.state = StateFailed
		return store.Credential{}, fmt.Errorf("authenticate new device: %w", err)
	}
	if err := e.manager.SetSessionID(ctx, sessionID); err != nil {
		e.state = StateFailed
		return store.Credential{}, fmt.Errorf("persist session: %w", err)
	}

	e.state = StateComplete
	return store.Credential{DeviceID: deviceID, PIN: pin}, nil
}
