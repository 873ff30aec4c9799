package api

import "time"

// RestoreSessionRequest identifies the user whose session to restore
type RestoreSessionRequest struct {
	UserID string `json:"user_id"`
}

// RestoreSessionResponse reports the restoration outcome
type RestoreSessionResponse struct {
	Outcome          string `json:"outcome"`
	DeviceID         string `json:"device_id,omitempty"`
	WipedCredentials bool   `json:"wiped_credentials"`
	Reason           string `json:"reason,omitempty"`
	AccessCredential string `json:"access_credential,omitempty"`
}

// EnabledResponse reports the trust check result
type EnabledResponse struct {
	Enabled bool `json:"enabled"`
}

// EnrollResponse reports the enrollment outcome
type EnrollResponse struct {
	Outcome  string `json:"outcome"`
	DeviceID string `json:"device_id,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// RevokeDeviceRequest identifies the device to revoke
type RevokeDeviceRequest struct {
	DeviceID string `json:"device_id"`
}

// RevokeDeviceResponse confirms the revocation was recorded
type RevokeDeviceResponse struct {
	Message string `json:"message"`
}

// AuthorizeActionRequest carries the prompt text for a gated action
type AuthorizeActionRequest struct {
	Reason string `json:"reason"`
}

// AuthorizeActionResponse reports whether the action may proceed
type AuthorizeActionResponse struct {
	Authorized bool `json:"authorized"`
}

// DeviceResponse is one device trust record as exposed to the caller.
// The token fingerprint is deliberately absent.
type DeviceResponse struct {
	DeviceID         string    `json:"device_id"`
	BiometricEnabled bool      `json:"biometric_enabled"`
	Trusted          bool      `json:"trusted"`
	Revoked          bool      `json:"revoked"`
	LastUsedAt       time.Time `json:"last_used_at,omitempty"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
}

// DeviceListResponse lists the user's device trust records
type DeviceListResponse struct {
	Devices []DeviceResponse `json:"devices"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}
