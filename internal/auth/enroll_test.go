package auth

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"diningwrapped/internal/logger"
	"diningwrapped/internal/store"
)

func newEnrollmentFixture(t *testing.T, platform Platform) (*Enrollment, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	m := newTestManager(t, st, platform)
	return NewEnrollment(m, platform, logger.New()), st
}

func TestEnrollment_Success(t *testing.T) {
	ctx := context.Background()
	platform := &mockPlatform{
		authenticateFunc: func(deviceID, pin string) (string, error) {
			return "session-first", nil
		},
	}
	e, st := newEnrollmentFixture(t, platform)

	if e.State() != StateIdle {
		t.Fatalf("initial state = %s, want idle", e.State())
	}

	cred, err := e.Run(ctx, "validator-token")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if e.State() != StateComplete {
		t.Errorf("state = %s, want complete", e.State())
	}

	if ok, _ := regexp.MatchString(`^[0-9A-F-]{36}$`, cred.DeviceID); !ok {
		t.Errorf("DeviceID = %q, want uppercase UUID", cred.DeviceID)
	}
	if ok, _ := regexp.MatchString(`^\d{4}$`, cred.PIN); !ok {
		t.Errorf("PIN = %q, want 4 digits", cred.PIN)
	}

	stored, ok, _ := st.LoadCredential(ctx)
	if !ok || stored != cred {
		t.Errorf("stored credential = %+v ok=%v, want %+v", stored, ok, cred)
	}
	sessionID, ok, _ := st.LoadSession(ctx)
	if !ok || sessionID != "session-first" {
		t.Errorf("stored session = %q ok=%v, want session-first", sessionID, ok)
	}
}

func TestEnrollment_RegistrationRejectedPersistsNothing(t *testing.T) {
	ctx := context.Background()
	platform := &mockPlatform{
		createPINFunc: func(deviceID, pin, validatorSessionID string) (bool, error) {
			return false, errors.New("validator session expired")
		},
	}
	e, st := newEnrollmentFixture(t, platform)

	if _, err := e.Run(ctx, "validator-token"); err == nil {
		t.Fatal("Run succeeded, want registration error")
	}
	if e.State() != StateFailed {
		t.Errorf("state = %s, want failed", e.State())
	}

	if _, ok, _ := st.LoadCredential(ctx); ok {
		t.Error("credential persisted despite rejected registration")
	}
	if _, ok, _ := st.LoadSession(ctx); ok {
		t.Error("session persisted despite rejected registration")
	}
	if platform.authenticateCalls != 0 {
		t.Errorf("authenticate calls = %d, want 0", platform.authenticateCalls)
	}
}

func TestEnrollment_RegistrationDeclinedWithoutError(t *testing.T) {
	ctx := context.Background()
	platform := &mockPlatform{
		createPINFunc: func(deviceID, pin, validatorSessionID string) (bool, error) {
			return false, nil
		},
	}
	e, st := newEnrollmentFixture(t, platform)

	_, err := e.Run(ctx, "validator-token")
	if !errors.Is(err, ErrRegistrationDeclined) {
		t.Errorf("err = %v, want ErrRegistrationDeclined", err)
	}
	if _, ok, _ := st.LoadCredential(ctx); ok {
		t.Error("credential persisted despite declined registration")
	}
}

func TestEnrollment_AuthenticationFailureKeepsCredential(t *testing.T) {
	ctx := context.Background()
	platform := &mockPlatform{
		authenticateFunc: func(deviceID, pin string) (string, error) {
			return "", errors.New("platform hiccup")
		},
	}
	e, st := newEnrollmentFixture(t, platform)

	if _, err := e.Run(ctx, "validator-token"); err == nil {
		t.Fatal("Run succeeded, want authentication error")
	}
	if e.State() != StateFailed {
		t.Errorf("state = %s, want failed", e.State())
	}

	// Registration succeeded, so the credential stays; the next
	// EnsureSession retries authentication with it.
	if _, ok, _ := st.LoadCredential(ctx); !ok {
		t.Error("credential missing, want persisted after accepted registration")
	}
	if _, ok, _ := st.LoadSession(ctx); ok {
		t.Error("session present, want none after failed authentication")
	}
}

func TestEnrollment_MalformedValidatorStaysIdle(t *testing.T) {
	ctx := context.Background()
	platform := &mockPlatform{}
	e, st := newEnrollmentFixture(t, platform)

	_, err := e.Run(ctx, "https://validator.example.com/callback?foo=bar")
	if !errors.Is(err, ErrMalformedInput) {
		t.Errorf("err = %v, want ErrMalformedInput", err)
	}
	if e.State() != StateIdle {
		t.Errorf("state = %s, want idle", e.State())
	}
	if platform.createPINCalls != 0 {
		t.Errorf("createPIN calls = %d, want 0", platform.createPINCalls)
	}
	if _, ok, _ := st.LoadCredential(ctx); ok {
		t.Error("credential persisted despite malformed input")
	}
}

func TestEnrollment_RunIsOneShot(t *testing.T) {
	ctx := context.Background()
	e, _ := newEnrollmentFixture(t, &mockPlatform{})

	if _, err := e.Run(ctx, "validator-token"); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	if _, err := e.Run(ctx, "validator-token"); err == nil {
		t.Error("second Run succeeded, want error")
	}
}

func TestEnrollment_UsesExtractedValidatorSession(t *testing.T) {
	ctx := context.Background()
	var gotValidator string
	platform := &mockPlatform{
		createPINFunc: func(deviceID, pin, validatorSessionID string) (bool, error) {
			gotValidator = validatorSessionID
			return true, nil
		},
	}
	e, _ := newEnrollmentFixture(t, platform)

	if _, err := e.Run(ctx, "https://validator.example.com/callback?sessionId=vs-42"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if gotValidator != "vs-42" {
		t.Errorf("validator session = %q, want vs-42", gotValidator)
	}
}
