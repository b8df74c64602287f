package auth

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"diningwrapped/internal/store"
)

// Manager is the process-wide credential/session context. It is constructed
// once at startup from persisted storage and mutated only through the
// operations below; presentation code sees it through the accessors.
//
// A credential maps to at most one live session. Session expiry has no
// client-visible timestamp - it is discovered when the platform rejects a
// request, at which point the caller refreshes.
type Manager struct {
	store      store.Store
	platform   Platform
	dispatcher *IdentityDispatcher
	log        zerolog.Logger

	mu        sync.Mutex
	cred      *store.Credential
	sessionID string
}

// ManagerOption configures optional Manager collaborators.
type ManagerOption func(*Manager)

// WithIdentityDispatcher wires the best-effort identity side channel. The
// manager works identically without it.
func WithIdentityDispatcher(d *IdentityDispatcher) ManagerOption {
	return func(m *Manager) { m.dispatcher = d }
}

// NewManager builds the auth context, loading any persisted credential and
// session into memory.
func NewManager(ctx context.Context, st store.Store, platform Platform, log zerolog.Logger, opts ...ManagerOption) (*Manager, error) {
	m := &Manager{
		store:    st,
		platform: platform,
		log:      log,
	}
	for _, opt := range opts {
		opt(m)
	}

	cred, ok, err := st.LoadCredential(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		m.cred = &cred
	}
	sessionID, ok, err := st.LoadSession(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		m.sessionID = sessionID
	}
	return m, nil
}

// IsEnrolled reports whether a device credential exists.
func (m *Manager) IsEnrolled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cred != nil
}

// HasSession reports whether a session id is currently cached. The session
// may still turn out to be expired on first use.
func (m *Manager) HasSession() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID != ""
}

// SetCredentials persists and caches a device credential. Enrollment calls
// this only after the platform has accepted the registration.
func (m *Manager) SetCredentials(ctx context.Context, deviceID, pin string) error {
	if err := m.store.SaveCredential(ctx, deviceID, pin); err != nil {
		return err
	}
	m.mu.Lock()
	m.cred = &store.Credential{DeviceID: deviceID, PIN: pin}
	m.mu.Unlock()
	return nil
}

// ClearCredentials is logout: all three slots are cleared and the in-memory
// state is torn down.
func (m *Manager) ClearCredentials(ctx context.Context) error {
	if err := m.store.ClearCredential(ctx); err != nil {
		return err
	}
	if err := m.store.ClearSession(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	m.cred = nil
	m.sessionID = ""
	m.mu.Unlock()
	m.log.Info().Msg("Credentials cleared")
	return nil
}

// SetSessionID replaces the stored session wholesale. An empty id clears it.
func (m *Manager) SetSessionID(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		if err := m.store.ClearSession(ctx); err != nil {
			return err
		}
	} else {
		if err := m.store.SaveSession(ctx, sessionID); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.sessionID = sessionID
	m.mu.Unlock()

	if sessionID != "" && m.dispatcher != nil {
		m.dispatcher.Notify(sessionID)
	}
	return nil
}

// EnsureSession returns the cached session if one exists, falling back to
// storage, and only then authenticates with the stored credential. Callers
// holding a rejected session use RefreshSession instead.
func (m *Manager) EnsureSession(ctx context.Context) (string, error) {
	m.mu.Lock()
	if m.sessionID != "" {
		sessionID := m.sessionID
		m.mu.Unlock()
		return sessionID, nil
	}
	m.mu.Unlock()

	// A second process may have written a session since startup.
	if stored, ok, err := m.store.LoadSession(ctx); err != nil {
		return "", err
	} else if ok {
		m.mu.Lock()
		m.sessionID = stored
		m.mu.Unlock()
		return stored, nil
	}

	return m.authenticate(ctx)
}

// RefreshSession unconditionally re-authenticates and replaces the stored
// session. Used only after the platform has rejected the current one.
func (m *Manager) RefreshSession(ctx context.Context) (string, error) {
	return m.authenticate(ctx)
}

func (m *Manager) authenticate(ctx context.Context) (string, error) {
	m.mu.Lock()
	cred := m.cred
	m.mu.Unlock()
	if cred == nil {
		return "", ErrMissingCredential
	}

	sessionID, err := m.platform.AuthenticatePIN(ctx, cred.DeviceID, cred.PIN)
	if err != nil {
		return "", err
	}
	if err := m.SetSessionID(ctx, sessionID); err != nil {
		return "", err
	}
	m.log.Debug().Msg("Session established")
	return sessionID, nil
}
