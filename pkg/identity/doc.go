// Package identity provides the seam to the authoritative identity backend.
//
// The Backend interface covers the three things the trust engine needs
// from the backend: device trust records, session validation/recovery,
// and device revocation. Service implements it over a trust repository
// and an HS256 token service; InMemBackend adds a reachability switch
// for exercising fail-closed behavior in tests.
//
// Credentials are JWTs with a token_use claim separating the access
// credential from the refresh credential. Session recovery exchanges a
// valid refresh credential for a fresh access credential; an unusable
// refresh credential yields ErrSessionInvalid, which callers treat as
// "sign in again".
package identity
