package service

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/go-doc-keeper/internal/config"
	"github.com/MKhiriev/go-doc-keeper/internal/logger"
	"github.com/MKhiriev/go-doc-keeper/internal/utils"
	"github.com/MKhiriev/go-doc-keeper/models"
)

// tokenService is the concrete implementation of TokenService. Client tokens
// are HS256 JWTs whose subject is the client id.
type tokenService struct {
	// tokenSignKey is the HMAC secret used to sign and verify tokens.
	tokenSignKey string

	// tokenIssuer is the "iss" claim embedded in every issued token.
	tokenIssuer string

	// tokenDuration controls how long a newly issued token remains valid.
	tokenDuration time.Duration

	logger *logger.Logger
}

// NewTokenService constructs a TokenService populated from cfg.
func NewTokenService(cfg config.ServerApp, logger *logger.Logger) TokenService {
	return &tokenService{
		tokenSignKey:  cfg.TokenSignKey,
		tokenIssuer:   cfg.TokenIssuer,
		tokenDuration: cfg.TokenDuration,
		logger:        logger,
	}
}

// CreateToken issues a signed token for clientID.
func (s *tokenService) CreateToken(ctx context.Context, clientID string) (models.Token, error) {
	token, err := utils.GenerateJWTToken(s.tokenIssuer, clientID, s.tokenDuration, s.tokenSignKey)
	if err != nil {
		s.logger.Err(err).Str("func", "tokenService.CreateToken").Msg("failed to create client token")
		return models.Token{}, fmt.Errorf("%w: %w", ErrTokenCreationFailed, err)
	}

	return token, nil
}

// ParseToken validates a raw token string. Every validation failure
// (expired, wrong issuer, malformed) is reported as ErrTokenIsExpiredOrInvalid.
func (s *tokenService) ParseToken(ctx context.Context, tokenString string) (models.Token, error) {
	token, err := utils.ValidateAndParseJWTToken(tokenString, s.tokenSignKey, s.tokenIssuer)
	if err != nil {
		return models.Token{}, ErrTokenIsExpiredOrInvalid
	}

	return token, nil
}
