// Package devicetrust provides device trust records and token fingerprinting.
//
// A trust record is the authoritative, backend-owned state for one
// (user, device) pair: whether biometric unlock is enabled, whether the
// device is trusted, whether it has been revoked, and the fingerprint
// binding the access credential to the device.
//
// # Overview
//
// The devicetrust package provides:
//   - The TrustRecord model and TrustRepository interface
//   - In-memory, file-based and PostgreSQL repositories
//   - Token fingerprint computation and comparison
//   - One-way revocation
//
// # Basic Usage
//
//	import "github.com/carelock/device-trust/pkg/devicetrust"
//
//	repo := devicetrust.NewInMemTrustRepository()
//
//	// Enrollment upsert, idempotent on (user_id, device_id)
//	record, err := repo.UpsertTrustRecord(ctx, devicetrust.TrustRecord{
//		UserID:           userID,
//		DeviceID:         deviceID,
//		BiometricEnabled: true,
//		Trusted:          true,
//		TokenFingerprint: devicetrust.TokenFingerprint(access, deviceID),
//	})
//
//	// Fingerprint check during session restore
//	if !devicetrust.FingerprintMatches(record.TokenFingerprint, access, deviceID) {
//		// credential was moved to another device
//	}
//
// # Revocation
//
// RevokeDevice flips revoked to true. The flag is sticky: upserts never
// clear it, so a revoked device can not re-enroll itself back into
// trust. Clearing requires deleting the record outright.
//
// # Related Packages
//
//   - pkg/trust - trust engine consuming these records
//   - pkg/identity - backend seam exposing record reads and upserts
package devicetrust
