package devicetrust

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenFingerprint_Deterministic(t *testing.T) {
	fp1 := TokenFingerprint("access-token", "device-1")
	fp2 := TokenFingerprint("access-token", "device-1")
	assert.Equal(t, fp1, fp2)
	assert.Len(t, fp1, 64) // hex-encoded SHA-256
}

func TestTokenFingerprint_BindsBothFields(t *testing.T) {
	base := TokenFingerprint("access-token", "device-1")

	assert.NotEqual(t, base, TokenFingerprint("other-token", "device-1"))
	assert.NotEqual(t, base, TokenFingerprint("access-token", "device-2"))
}

func TestTokenFingerprint_DelimiterBlocksConcatenationCollision(t *testing.T) {
	// Without a delimiter, ("ab", "c") and ("a", "bc") would hash the
	// same concatenated string.
	assert.NotEqual(t,
		TokenFingerprint("ab", "c"),
		TokenFingerprint("a", "bc"),
	)
}

func TestFingerprintMatches(t *testing.T) {
	stored := TokenFingerprint("access-token", "device-1")

	assert.True(t, FingerprintMatches(stored, "access-token", "device-1"))
	assert.False(t, FingerprintMatches(stored, "access-token", "device-2"))
	assert.False(t, FingerprintMatches(stored, "stolen-token", "device-1"))

	// Empty stored fingerprint never matches
	assert.False(t, FingerprintMatches("", "access-token", "device-1"))
}
