package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"diningwrapped/internal/auth"
	"diningwrapped/internal/getapi"
	"diningwrapped/internal/pipeline"
	"diningwrapped/internal/store"
)

type fakePlatform struct {
	accept  bool
	history *getapi.TransactionHistory
	authErr error
}

func (p *fakePlatform) CreatePIN(ctx context.Context, deviceID, pin, validatorSessionID string) (bool, error) {
	return p.accept, nil
}

func (p *fakePlatform) AuthenticatePIN(ctx context.Context, deviceID, pin string) (string, error) {
	if p.authErr != nil {
		return "", p.authErr
	}
	return "session-1", nil
}

func (p *fakePlatform) RetrieveUserID(ctx context.Context, sessionID string) (string, error) {
	return "user-1", nil
}

func (p *fakePlatform) RetrieveTransactions(ctx context.Context, sessionID string, query getapi.TransactionQuery) (*getapi.TransactionHistory, error) {
	return p.history, nil
}

func newManager(t *testing.T, platform auth.Platform) *auth.Manager {
	t.Helper()
	m, err := auth.NewManager(context.Background(), store.NewMemoryStore(), platform, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m
}

func TestEnrollSuccess(t *testing.T) {
	platform := &fakePlatform{accept: true}
	manager := newManager(t, platform)
	h := NewEnrollHandler(manager, platform, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/enroll", strings.NewReader(`{"validator":"tok-1"}`))
	rec := httptest.NewRecorder()
	h.Enroll(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["device_id"] == "" {
		t.Error("response missing device_id")
	}
	if !manager.IsEnrolled() || !manager.HasSession() {
		t.Errorf("manager state = enrolled %v, hasSession %v; want both true", manager.IsEnrolled(), manager.HasSession())
	}
}

func TestEnrollMalformedValidator(t *testing.T) {
	platform := &fakePlatform{accept: true}
	h := NewEnrollHandler(newManager(t, platform), platform, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/enroll", strings.NewReader(`{"validator":"https://get.cbord.com/login?foo=bar"}`))
	rec := httptest.NewRecorder()
	h.Enroll(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestEnrollDeclinedRegistration(t *testing.T) {
	platform := &fakePlatform{accept: false}
	manager := newManager(t, platform)
	h := NewEnrollHandler(manager, platform, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/enroll", strings.NewReader(`{"validator":"tok-1"}`))
	rec := httptest.NewRecorder()
	h.Enroll(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
	if manager.IsEnrolled() {
		t.Error("declined registration must not persist a credential")
	}
}

func TestSessionReflectsManagerState(t *testing.T) {
	platform := &fakePlatform{accept: true}
	manager := newManager(t, platform)
	h := NewEnrollHandler(manager, platform, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Session(rec, httptest.NewRequest(http.MethodGet, "/api/session", nil))

	var body map[string]bool
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["enrolled"] || body["hasSession"] {
		t.Errorf("fresh manager reported enrolled=%v hasSession=%v", body["enrolled"], body["hasSession"])
	}
}

func TestLogoutClearsState(t *testing.T) {
	platform := &fakePlatform{accept: true}
	manager := newManager(t, platform)
	if err := manager.SetCredentials(context.Background(), "DEV-1", "1234"); err != nil {
		t.Fatalf("SetCredentials() error = %v", err)
	}
	h := NewEnrollHandler(manager, platform, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/api/logout", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if manager.IsEnrolled() {
		t.Error("logout left the credential in place")
	}
}

func TestWrappedWithoutCredential(t *testing.T) {
	platform := &fakePlatform{history: &getapi.TransactionHistory{}}
	manager := newManager(t, platform)
	p := pipeline.New(pipeline.NewFetcher(manager, platform, zerolog.Nop()), zerolog.Nop())
	h := NewWrappedHandler(p, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Wrapped(rec, httptest.NewRequest(http.MethodGet, "/api/wrapped", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestWrappedReturnsSummary(t *testing.T) {
	platform := &fakePlatform{
		history: &getapi.TransactionHistory{
			TotalCount: 2,
			Transactions: []getapi.Transaction{
				{TransactionID: "t1", Amount: 4.25, LocationName: "Heritage Coffeehouse 2"},
				{TransactionID: "t2", Amount: 9.80, LocationName: "Marycrest Dining"},
			},
		},
	}
	manager := newManager(t, platform)
	if err := manager.SetCredentials(context.Background(), "DEV-1", "1234"); err != nil {
		t.Fatalf("SetCredentials() error = %v", err)
	}
	p := pipeline.New(pipeline.NewFetcher(manager, platform, zerolog.Nop()), zerolog.Nop())
	h := NewWrappedHandler(p, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Wrapped(rec, httptest.NewRequest(http.MethodGet, "/api/wrapped", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	var result pipeline.Result
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Summary.TotalCount != 2 {
		t.Errorf("TotalCount = %d, want 2", result.Summary.TotalCount)
	}
	if result.Summary.MostExpensive == nil || result.Summary.MostExpensive.LocationName != "Marycrest" {
		t.Errorf("MostExpensive = %+v, want Marycrest", result.Summary.MostExpensive)
	}
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
