package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelock/device-trust/pkg/audit"
	"github.com/carelock/device-trust/pkg/biometric"
	"github.com/carelock/device-trust/pkg/identity"
	"github.com/carelock/device-trust/pkg/securestore"
	"github.com/carelock/device-trust/pkg/trust"
)

const testSecret = "test-secret"

type apiFixture struct {
	store   *securestore.InMemSecureStore
	backend *identity.InMemBackend
	prompt  *biometric.ScriptedPrompt
	tokens  *identity.TokenService
	router  *chi.Mux
	userID  uuid.UUID
}

func newAPIFixture(t *testing.T, outcomes ...biometric.ChallengeOutcome) *apiFixture {
	t.Helper()

	tokens := identity.NewTokenService(testSecret, "carelock", "carelock-app")
	f := &apiFixture{
		store:   securestore.NewInMemSecureStore(),
		backend: identity.NewInMemBackend(tokens),
		prompt:  biometric.NewScriptedPrompt(true, outcomes...),
		tokens:  tokens,
		userID:  uuid.New(),
	}

	engine := trust.NewEngine(f.store, f.backend, f.prompt, trust.WithSink(audit.NewMemorySink()))
	handle := NewHandle(jwtauth.New("HS256", []byte(testSecret), nil), engine, f.backend)

	f.router = chi.NewRouter()
	f.router.Route("/trust", func(r chi.Router) {
		handle.Routes(r)
	})
	return f
}

// signIn stores credentials locally and returns a bearer token for the user
func (f *apiFixture) signIn(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	creds, err := f.backend.SignIn(ctx, f.userID)
	require.NoError(t, err)
	require.NoError(t, f.store.SetCredentials(ctx, creds))
	return creds.AccessCredential
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestRestoreSession_FreshDevice(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/trust/restore", "", RestoreSessionRequest{UserID: f.userID.String()})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[RestoreSessionResponse](t, rec)
	assert.Equal(t, "login_required", resp.Outcome)
	assert.NotEmpty(t, resp.DeviceID)
}

func TestRestoreSession_InvalidBody(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/trust/restore", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRestoreSession_InvalidUserID(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/trust/restore", "", RestoreSessionRequest{UserID: "not-a-uuid"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIsEnabled_RequiresToken(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/trust/enabled", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIsEnabled_NotEnrolled(t *testing.T) {
	f := newAPIFixture(t)
	token := f.signIn(t)

	rec := f.do(t, http.MethodGet, "/trust/enabled", token, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[EnabledResponse](t, rec).Enabled)
}

func TestEnroll_ThenEnabled(t *testing.T) {
	f := newAPIFixture(t, biometric.ChallengeSuccess)
	token := f.signIn(t)

	rec := f.do(t, http.MethodPost, "/trust/enroll", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[EnrollResponse](t, rec)
	assert.Equal(t, "success", resp.Outcome)
	assert.NotEmpty(t, resp.DeviceID)

	rec = f.do(t, http.MethodGet, "/trust/enabled", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[EnabledResponse](t, rec).Enabled)
}

func TestEnroll_ChallengeCancelled(t *testing.T) {
	f := newAPIFixture(t, biometric.ChallengeCancelled)
	token := f.signIn(t)

	rec := f.do(t, http.MethodPost, "/trust/enroll", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "auth_failed", decode[EnrollResponse](t, rec).Outcome)
}

func TestRevokeDevice_ThenDisabled(t *testing.T) {
	f := newAPIFixture(t, biometric.ChallengeSuccess)
	token := f.signIn(t)

	rec := f.do(t, http.MethodPost, "/trust/enroll", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	deviceID := decode[EnrollResponse](t, rec).DeviceID

	rec = f.do(t, http.MethodPost, "/trust/revoke", token, RevokeDeviceRequest{DeviceID: deviceID})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/trust/enabled", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[EnabledResponse](t, rec).Enabled)
}

func TestRevokeDevice_MissingDeviceID(t *testing.T) {
	f := newAPIFixture(t)
	token := f.signIn(t)

	rec := f.do(t, http.MethodPost, "/trust/revoke", token, RevokeDeviceRequest{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListDevices(t *testing.T) {
	f := newAPIFixture(t, biometric.ChallengeSuccess)
	token := f.signIn(t)

	rec := f.do(t, http.MethodPost, "/trust/enroll", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	deviceID := decode[EnrollResponse](t, rec).DeviceID

	rec = f.do(t, http.MethodGet, "/trust/devices", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[DeviceListResponse](t, rec)
	require.Len(t, resp.Devices, 1)
	assert.Equal(t, deviceID, resp.Devices[0].DeviceID)
	assert.True(t, resp.Devices[0].BiometricEnabled)
	assert.False(t, resp.Devices[0].Revoked)
}

func TestAuthorizeAction(t *testing.T) {
	f := newAPIFixture(t, biometric.ChallengeSuccess, biometric.ChallengeSuccess)
	token := f.signIn(t)

	rec := f.do(t, http.MethodPost, "/trust/enroll", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/trust/authorize", token, AuthorizeActionRequest{Reason: "export health data"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[AuthorizeActionResponse](t, rec).Authorized)
}
