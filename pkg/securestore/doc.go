// Package securestore provides the encrypted local key store for device-trust.
//
// The store holds the five keys the trust engine depends on: the device
// identifier, the access/refresh credential pair, the local
// biometric-enabled flag, and the last-activity timestamp.
//
// # Overview
//
// Two lifecycle rules matter:
//
//   - The credential pair is written and cleared as one unit. A store
//     never holds only half of the pair.
//   - The device identifier is created once and survives credential
//     wipes and sign-out. Only DeleteAll removes it.
//
// # Basic Usage
//
//	import "github.com/carelock/device-trust/pkg/securestore"
//
//	store, err := securestore.NewFileSecureStore("/var/lib/app", securestore.StoreOptions{
//		Passphrase: passphrase,
//	})
//
//	deviceID, err := store.EnsureDeviceID(ctx)
//
//	err = store.SetCredentials(ctx, securestore.Credentials{
//		AccessCredential:  access,
//		RefreshCredential: refresh,
//	})
//
// The file-backed store seals its payload with AES-GCM under an
// argon2id-derived key; a fresh nonce is generated on every save.
//
// # Related Packages
//
//   - pkg/trust - trust engine consuming the store
//   - pkg/restoreflow - session restoration
package securestore
