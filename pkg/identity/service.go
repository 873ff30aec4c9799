package identity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carelock/device-trust/pkg/devicetrust"
	"github.com/carelock/device-trust/pkg/securestore"
)

// Service implements Backend over a trust repository and a token service
type Service struct {
	trustRepository devicetrust.TrustRepository
	tokens          *TokenService
}

// NewService creates a new identity service
func NewService(trustRepository devicetrust.TrustRepository, tokens *TokenService) *Service {
	return &Service{
		trustRepository: trustRepository,
		tokens:          tokens,
	}
}

// SignIn issues a fresh credential pair for the user. Called after the
// user authenticated with their password (password verification itself
// is outside this module).
func (s *Service) SignIn(ctx context.Context, userID uuid.UUID) (securestore.Credentials, error) {
	access, err := s.tokens.IssueAccessCredential(userID)
	if err != nil {
		return securestore.Credentials{}, fmt.Errorf("failed to issue access credential: %w", err)
	}
	refresh, err := s.tokens.IssueRefreshCredential(userID)
	if err != nil {
		return securestore.Credentials{}, fmt.Errorf("failed to issue refresh credential: %w", err)
	}

	slog.Info("Issued credential pair", "userID", userID)
	return securestore.Credentials{
		AccessCredential:  access,
		RefreshCredential: refresh,
	}, nil
}

// GetDeviceRecord returns the trust record for (user, device)
func (s *Service) GetDeviceRecord(ctx context.Context, userID uuid.UUID, deviceID string) (devicetrust.TrustRecord, error) {
	return s.trustRepository.GetTrustRecord(ctx, userID, deviceID)
}

// UpsertDeviceRecord creates or updates the trust record
func (s *Service) UpsertDeviceRecord(ctx context.Context, record devicetrust.TrustRecord) (devicetrust.TrustRecord, error) {
	return s.trustRepository.UpsertTrustRecord(ctx, record)
}

// ValidateOrRecoverSession exchanges a refresh credential for a fresh
// access credential
func (s *Service) ValidateOrRecoverSession(ctx context.Context, refreshCredential string) (string, error) {
	userID, err := s.tokens.SubjectOf(refreshCredential, "refresh")
	if err != nil {
		slog.Info("Session recovery rejected", "err", err)
		return "", ErrSessionInvalid
	}

	access, err := s.tokens.IssueAccessCredential(userID)
	if err != nil {
		return "", fmt.Errorf("failed to issue access credential: %w", err)
	}

	slog.Info("Session recovered", "userID", userID)
	return access, nil
}

// HasActiveSession reports whether the access credential belongs to a
// live session for the given user
func (s *Service) HasActiveSession(ctx context.Context, userID uuid.UUID, accessCredential string) (bool, error) {
	subject, err := s.tokens.SubjectOf(accessCredential, "access")
	if err != nil {
		return false, nil
	}
	return subject == userID, nil
}

// FindRecordsByUser lists every device trust record for the user
func (s *Service) FindRecordsByUser(ctx context.Context, userID uuid.UUID) ([]devicetrust.TrustRecord, error) {
	return s.trustRepository.FindRecordsByUser(ctx, userID)
}

// RecordDeviceUsage updates the last-used timestamp on the record
func (s *Service) RecordDeviceUsage(ctx context.Context, userID uuid.UUID, deviceID string) error {
	return s.trustRepository.UpdateLastUsed(ctx, userID, deviceID, time.Now().UTC())
}

// RevokeDevice marks the device revoked
func (s *Service) RevokeDevice(ctx context.Context, userID uuid.UUID, deviceID string) error {
	return s.trustRepository.RevokeDevice(ctx, userID, deviceID)
}
