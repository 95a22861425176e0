package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/bizkeeper/internal/auth"
	"github.com/dmitrijs2005/bizkeeper/internal/common"
	"github.com/dmitrijs2005/bizkeeper/internal/server/config"
)

// TokenService mints and verifies HS256 access tokens. Users are external to
// the backend: a token's subject is the user id every record is scoped to.
type TokenService struct {
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

// NewTokenService constructs a TokenService from server config.
func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

// Issue returns a signed access token for userID.
func (s *TokenService) Issue(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("%w: empty user id", common.ErrInvalidToken)
	}
	return auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
}

// Authenticate verifies token and returns its user id. Any verification
// failure is reported as common.ErrorUnauthorized wrapping the cause.
func (s *TokenService) Authenticate(token string) (string, error) {
	userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}
	return userID, nil
}
