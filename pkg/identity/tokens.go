package identity

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultAccessExpiry  = 15 * time.Minute
	DefaultRefreshExpiry = 7 * 24 * time.Hour
)

// Claims struct for JWT claims
type Claims struct {
	TokenUse string `json:"token_use,omitempty"` // "access" or "refresh"
	jwt.RegisteredClaims
}

// TokenService issues and validates the access/refresh credential pair
type TokenService struct {
	Secret        string
	Issuer        string
	Audience      string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// NewTokenService creates a new token service with default expiries
func NewTokenService(secret, issuer, audience string) *TokenService {
	return &TokenService{
		Secret:        secret,
		Issuer:        issuer,
		Audience:      audience,
		AccessExpiry:  DefaultAccessExpiry,
		RefreshExpiry: DefaultRefreshExpiry,
	}
}

// generate creates a signed token for the subject with the given use and expiry
func (s *TokenService) generate(subject, tokenUse string, expiry time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		TokenUse: tokenUse,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-5 * time.Minute)),
			Issuer:    s.Issuer,
			Subject:   subject,
			ID:        uuid.New().String(),
			Audience:  jwt.ClaimStrings{s.Audience},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(s.Secret))
	if err != nil {
		slog.Error("Failed to sign JWT claims", "err", err)
		return "", err
	}
	return ss, nil
}

// IssueAccessCredential issues a fresh access credential for the user
func (s *TokenService) IssueAccessCredential(userID uuid.UUID) (string, error) {
	return s.generate(userID.String(), "access", s.AccessExpiry)
}

// IssueRefreshCredential issues a fresh refresh credential for the user
func (s *TokenService) IssueRefreshCredential(userID uuid.UUID) (string, error) {
	return s.generate(userID.String(), "refresh", s.RefreshExpiry)
}

// ParseCredential parses and validates a credential, returning its claims
func (s *TokenService) ParseCredential(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// SubjectOf parses the credential and returns its subject as a user ID.
// The tokenUse must match the credential's token_use claim.
func (s *TokenService) SubjectOf(tokenStr, tokenUse string) (uuid.UUID, error) {
	claims, err := s.ParseCredential(tokenStr)
	if err != nil {
		return uuid.Nil, err
	}
	if claims.TokenUse != tokenUse {
		return uuid.Nil, fmt.Errorf("unexpected token use: %s", claims.TokenUse)
	}
	return uuid.Parse(claims.Subject)
}
