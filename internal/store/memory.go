package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store implementation. It is safe for
// concurrent use. Data is lost on restart - use SQLiteStore for a real
// device identity.
type MemoryStore struct {
	mu    sync.RWMutex
	slots map[string]string
}

// NewMemoryStore creates a new in-memory slot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		slots: make(map[string]string),
	}
}

// SaveCredential writes the device id and PIN slots.
func (s *MemoryStore) SaveCredential(ctx context.Context, deviceID, pin string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[slotDeviceID] = deviceID
	s.slots[slotPIN] = pin
	return nil
}

// LoadCredential reads both credential slots; either missing means absent.
func (s *MemoryStore) LoadCredential(ctx context.Context) (Credential, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	deviceID, okDevice := s.slots[slotDeviceID]
	pin, okPIN := s.slots[slotPIN]
	if !okDevice || !okPIN {
		return Credential{}, false, nil
	}
	return Credential{DeviceID: deviceID, PIN: pin}, true, nil
}

// ClearCredential removes the device id and PIN slots.
func (s *MemoryStore) ClearCredential(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, slotDeviceID)
	delete(s.slots, slotPIN)
	return nil
}

// SaveSession writes the session slot.
func (s *MemoryStore) SaveSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[slotSession] = sessionID
	return nil
}

// LoadSession reads the session slot.
func (s *MemoryStore) LoadSession(ctx context.Context) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessionID, ok := s.slots[slotSession]
	return sessionID, ok, nil
}

// ClearSession removes the session slot.
func (s *MemoryStore) ClearSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, slotSession)
	return nil
}

// SetSlot writes a single raw slot. Tests use this to model partial or
// corrupt storage.
func (s *MemoryStore) SetSlot(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[key] = value
}

// DeviceIDSlot is the raw key of the device id slot, exported for tests.
const DeviceIDSlot = slotDeviceID
