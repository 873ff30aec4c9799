// Package errors provides structured error handling with error codes for device-trust.
//
// This package standardizes error handling across all services with typed error codes,
// structured error details, and automatic HTTP status code mapping.
//
// # Basic Usage
//
//	import "github.com/carelock/device-trust/pkg/errors"
//
//	// Create a simple error
//	err := errors.New(errors.ErrCodeRevoked, "device has been revoked")
//
//	// Wrap an existing error
//	err := errors.Wrap(dbErr, errors.ErrCodeInternal, "failed to query trust record")
//
//	// Use convenience constructors
//	err := errors.NotFound("trust record", deviceID)
//	err := errors.Unavailable("identity backend")
//
// # Error Inspection
//
//	if errors.IsCode(err, errors.ErrCodeUnavailable) {
//		// fail closed
//	}
//
//	status := errors.GetCode(err)
package errors
