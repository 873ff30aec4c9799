package devicetrust

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// TokenFingerprint computes the one-way binding of an access credential
// to a device identifier. The fingerprint is a SHA-256 hash of the two
// fields joined with a delimiter, hex encoded.
//
// The delimiter matters: without it, two different (credential, device)
// pairs could concatenate to the same string and collide.
func TokenFingerprint(accessCredential, deviceID string) string {
	combined := fmt.Sprintf("%s|%s", accessCredential, deviceID)

	hash := sha256.Sum256([]byte(combined))

	return hex.EncodeToString(hash[:])
}

// FingerprintMatches compares a stored fingerprint against the
// fingerprint of the given credential and device, in constant time.
// A mismatch is a compromise signal, not a soft error.
func FingerprintMatches(stored, accessCredential, deviceID string) bool {
	if stored == "" {
		return false
	}
	computed := TokenFingerprint(accessCredential, deviceID)
	return subtle.ConstantTimeCompare([]byte(stored), []byte(computed)) == 1
}
