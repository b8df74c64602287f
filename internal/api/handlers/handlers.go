package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"diningwrapped/internal/api/middleware"
	"diningwrapped/internal/auth"
	"diningwrapped/internal/getapi"
	"diningwrapped/internal/pipeline"
)

// EnrollHandler handles device enrollment and session endpoints.
type EnrollHandler struct {
	manager  *auth.Manager
	platform auth.Platform
	log      zerolog.Logger
}

// NewEnrollHandler creates a new enrollment handler.
func NewEnrollHandler(manager *auth.Manager, platform auth.Platform, log zerolog.Logger) *EnrollHandler {
	return &EnrollHandler{
		manager:  manager,
		platform: platform,
		log:      log,
	}
}

// Enroll handles POST /api/enroll
func (h *EnrollHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Validator string `json:"validator"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Each enrollment attempt gets a fresh one-shot flow.
	flow := auth.NewEnrollment(h.manager, h.platform, h.log)
	cred, err := flow.Run(r.Context(), req.Validator)
	if err != nil {
		h.log.Error().Err(err).Str("state", flow.State().String()).Msg("Enrollment failed")
		writeDomainError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"device_id": cred.DeviceID,
	})
}

// Session handles GET /api/session
func (h *EnrollHandler) Session(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]bool{
		"enrolled":   h.manager.IsEnrolled(),
		"hasSession": h.manager.HasSession(),
	})
}

// Logout handles POST /api/logout
func (h *EnrollHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.ClearCredentials(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Failed to clear credentials")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to clear credentials")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// WrappedHandler serves the derived summary.
type WrappedHandler struct {
	pipeline *pipeline.Pipeline
	log      zerolog.Logger
}

// NewWrappedHandler creates a new summary handler.
func NewWrappedHandler(p *pipeline.Pipeline, log zerolog.Logger) *WrappedHandler {
	return &WrappedHandler{
		pipeline: p,
		log:      log,
	}
}

// Wrapped handles GET /api/wrapped
func (h *WrappedHandler) Wrapped(w http.ResponseWriter, r *http.Request) {
	result, err := h.pipeline.BuildSummary(r.Context(), pipeline.DefaultWindow())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build summary")
		writeDomainError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, result)
}

// Health handles GET /healthz
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeDomainError maps domain failures onto HTTP status codes: caller
// mistakes are 4xx, platform-side rejections and outages are 502.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrMalformedInput):
		middleware.WriteError(w, http.StatusBadRequest, "Malformed validator input")
	case errors.Is(err, auth.ErrMissingCredential):
		middleware.WriteError(w, http.StatusUnauthorized, "Device is not enrolled")
	case errors.Is(err, auth.ErrRegistrationDeclined):
		middleware.WriteError(w, http.StatusBadGateway, "Platform declined the registration")
	case errors.Is(err, getapi.ErrAuthentication):
		middleware.WriteError(w, http.StatusBadGateway, "Platform rejected credentials")
	case errors.Is(err, getapi.ErrSessionExpired):
		middleware.WriteError(w, http.StatusBadGateway, "Platform session expired")
	case errors.Is(err, getapi.ErrTransport):
		middleware.WriteError(w, http.StatusBadGateway, "Platform unreachable")
	default:
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}
