// Package biometric defines the seam to the OS biometric prompt.
//
// The trust engine never sees biometric data. The only things crossing
// this boundary are a capability check and a per-challenge outcome
// (success, failed, cancelled, unavailable).
//
// Challenges carry a Mode stating their write intent: ModeSetup is used
// once, when the user enables quick sign-in, and is the only mode that
// may lead to trust-record writes; ModeUnlock is used on every session
// restore and is read-only. Keeping the two apart is what prevents a
// failed unlock from silently re-enrolling the device.
package biometric
