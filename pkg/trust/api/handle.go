package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"github.com/carelock/device-trust/pkg/devicetrust"
	pkgerrors "github.com/carelock/device-trust/pkg/errors"
	"github.com/carelock/device-trust/pkg/trust"
)

// DeviceLister lists the device trust records of one user
type DeviceLister interface {
	FindRecordsByUser(ctx context.Context, userID uuid.UUID) ([]devicetrust.TrustRecord, error)
}

// Handle exposes the trust engine over HTTP
type Handle struct {
	jwtAuth *jwtauth.JWTAuth
	engine  *trust.Engine
	devices DeviceLister
}

// NewHandle creates a new trust API handler
func NewHandle(jwtAuth *jwtauth.JWTAuth, engine *trust.Engine, devices DeviceLister) *Handle {
	return &Handle{
		jwtAuth: jwtAuth,
		engine:  engine,
		devices: devices,
	}
}

// Routes mounts the trust endpoints. Everything except /restore
// requires an authenticated session token.
func (h *Handle) Routes(r chi.Router) {
	r.Post("/restore", h.RestoreSession)

	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(h.jwtAuth))
		r.Use(jwtauth.Authenticator(h.jwtAuth))

		r.Get("/enabled", h.IsEnabled)
		r.Post("/enroll", h.Enroll)
		r.Post("/authorize", h.AuthorizeAction)
		r.Post("/revoke", h.RevokeDevice)
		r.Get("/devices", h.ListDevices)
	})
}

// RestoreSession handles POST /restore
func (h *Handle) RestoreSession(w http.ResponseWriter, r *http.Request) {
	var req RestoreSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request body", "error", err)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid user_id"})
		return
	}

	result, err := h.engine.RestoreSession(r.Context(), userID)
	if err != nil {
		h.renderEngineError(w, r, err, "Failed to restore session")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, RestoreSessionResponse{
		Outcome:          string(result.Outcome),
		DeviceID:         result.DeviceID,
		WipedCredentials: result.WipedCredentials,
		Reason:           result.Reason,
		AccessCredential: result.AccessCredential,
	})
}

// IsEnabled handles GET /enabled
func (h *Handle) IsEnabled(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserIDFromContext(r)
	if err != nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "Unauthorized"})
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, EnabledResponse{
		Enabled: h.engine.IsBiometricEnabled(r.Context(), userID),
	})
}

// Enroll handles POST /enroll
func (h *Handle) Enroll(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserIDFromContext(r)
	if err != nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "Unauthorized"})
		return
	}

	result, err := h.engine.Enroll(r.Context(), userID)
	if err != nil {
		h.renderEngineError(w, r, err, "Failed to enroll")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, EnrollResponse{
		Outcome:  string(result.Outcome),
		DeviceID: result.DeviceID,
		Reason:   result.Reason,
	})
}

// AuthorizeAction handles POST /authorize
func (h *Handle) AuthorizeAction(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserIDFromContext(r)
	if err != nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req AuthorizeActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, AuthorizeActionResponse{
		Authorized: h.engine.AuthorizeAction(r.Context(), userID, req.Reason),
	})
}

// RevokeDevice handles POST /revoke
func (h *Handle) RevokeDevice(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserIDFromContext(r)
	if err != nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req RevokeDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.DeviceID == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "device_id is required"})
		return
	}

	if err := h.engine.RevokeDevice(r.Context(), userID, req.DeviceID); err != nil {
		h.renderEngineError(w, r, err, "Failed to revoke device")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, RevokeDeviceResponse{
		Message: "Device revoked; trust is withdrawn at its next check",
	})
}

// ListDevices handles GET /devices
func (h *Handle) ListDevices(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserIDFromContext(r)
	if err != nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "Unauthorized"})
		return
	}

	records, err := h.devices.FindRecordsByUser(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to list device records", "error", err)
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, ErrorResponse{Error: "Failed to list devices"})
		return
	}

	devices := make([]DeviceResponse, 0, len(records))
	for _, record := range records {
		var device DeviceResponse
		if err := copier.Copy(&device, &record); err != nil {
			slog.Error("Failed to map device record", "error", err)
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, ErrorResponse{Error: "Failed to list devices"})
			return
		}
		devices = append(devices, device)
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, DeviceListResponse{Devices: devices})
}

// renderEngineError maps structured engine errors onto HTTP statuses
func (h *Handle) renderEngineError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var structured *pkgerrors.Error
	if errors.As(err, &structured) {
		render.Status(r, structured.HTTPStatusCode())
		render.JSON(w, r, ErrorResponse{Error: structured.Message})
		return
	}

	slog.Error(fallback, "error", err)
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, ErrorResponse{Error: fallback})
}

// getUserIDFromContext extracts the user ID from the verified JWT in
// the request context
func getUserIDFromContext(r *http.Request) (uuid.UUID, error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return uuid.Nil, err
	}

	subject, ok := claims["sub"].(string)
	if !ok || subject == "" {
		return uuid.Nil, errors.New("subject not found in claims")
	}

	return uuid.Parse(subject)
}
